package channel

import (
	"crypto/rand"
	"math/big"
)

// Word lists for generated channel names. Two short words are easy to
// read back over the phone and distinctive enough for the handful of
// channels a device realistically holds.
var (
	nameAdjectives = []string{
		"amber", "bold", "brisk", "calm", "clever", "coral", "crisp",
		"dusty", "eager", "fuzzy", "gentle", "golden", "happy", "icy",
		"jolly", "keen", "lively", "lucky", "mellow", "misty", "noble",
		"pale", "quiet", "rapid", "rosy", "shiny", "silent", "swift",
		"tidy", "vivid", "warm", "witty",
	}
	nameNouns = []string{
		"badger", "beacon", "breeze", "canyon", "cedar", "comet",
		"dune", "ember", "falcon", "fern", "garnet", "glacier",
		"harbor", "heron", "island", "jasper", "lantern", "maple",
		"meadow", "nimbus", "otter", "pebble", "pine", "quartz",
		"raven", "reef", "sparrow", "summit", "thicket", "tundra",
		"willow", "zephyr",
	}
)

// generateName returns a random two-word phrase like "misty-falcon".
func generateName() string {
	return pick(nameAdjectives) + "-" + pick(nameNouns)
}

func pick(words []string) string {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(words))))
	if err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return words[n.Int64()]
}
