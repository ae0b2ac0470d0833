package progression

import "math"

// pointsPerBand is the quadratic curve coefficient: level n begins at
// (n-1)^2 * pointsPerBand total points.
const pointsPerBand = 100

// LevelForPoints maps total accumulated points to a level and the width of
// that level's point band. The second value is the full band width
// (level^2*100 - (level-1)^2*100), not the points remaining to cross it;
// progress displays subtract the band's starting threshold themselves.
func LevelForPoints(totalPoints int) (level, pointsToNextLevel int) {
	if totalPoints < 0 {
		totalPoints = 0
	}
	level = int(math.Floor(math.Sqrt(float64(totalPoints)/pointsPerBand))) + 1
	if level < 1 {
		level = 1
	}
	pointsToNextLevel = levelBandWidth(level)
	return level, pointsToNextLevel
}

// LevelStartPoints returns the cumulative point threshold at which the given
// level begins. Level 1 begins at 0.
func LevelStartPoints(level int) int {
	if level <= 1 {
		return 0
	}
	return (level - 1) * (level - 1) * pointsPerBand
}

// levelBandWidth returns the number of points spanned by the given level's
// band. Always positive for level >= 1.
func levelBandWidth(level int) int {
	return level*level*pointsPerBand - (level-1)*(level-1)*pointsPerBand
}
