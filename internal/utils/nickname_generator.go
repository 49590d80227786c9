package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var prefixes = []string{
	"Summit", "Harbor", "Cedar", "Amber", "Maple",
	"Granite", "Coral", "Willow", "Aspen", "Onyx",
	"Sterling", "Juniper", "Cobalt", "Saffron", "Quartz",
}

var suffixes = []string{
	"Trader", "Builder", "Partner", "Pioneer", "Scout",
	"Mentor", "Leader", "Founder", "Ranger", "Voyager",
}

// GenerateNickname creates a default display name such as "Cedar_Mentor_0417"
// for members who register without choosing one.
func GenerateNickname() (string, error) {
	prefix, err := pick(prefixes)
	if err != nil {
		return "", fmt.Errorf("failed to pick nickname prefix: %w", err)
	}
	suffix, err := pick(suffixes)
	if err != nil {
		return "", fmt.Errorf("failed to pick nickname suffix: %w", err)
	}
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("failed to generate nickname number: %w", err)
	}
	return fmt.Sprintf("%s_%s_%04d", prefix, suffix, n.Int64()), nil
}

func pick(words []string) (string, error) {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(words))))
	if err != nil {
		return "", err
	}
	return words[idx.Int64()], nil
}
