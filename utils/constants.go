package utils

const (
	// MaxClients caps how many client records the scoreboard keeps.
	MaxClients = 25

	// BufferSize is the capacity of the pending-session ring buffer.
	BufferSize = 25

	// MaxLevels bounds how many level files a session will play.
	MaxLevels = 10

	// MaxPipePathLength is the fixed on-wire width of a pipe path.
	MaxPipePathLength = 40

	// PointsPerDot is awarded for every dot the pacman eats.
	PointsPerDot = 10

	// LevelSuffix selects playable files inside the levels directory.
	LevelSuffix = ".lvl"
)
