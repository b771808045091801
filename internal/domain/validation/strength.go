package validation

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Strength levels reported by PasswordStrength.
const (
	StrengthNone   = "none"
	StrengthWeak   = "weak"
	StrengthMedium = "medium"
	StrengthStrong = "strong"
)

// maxStrengthScore is the best achievable score.
const maxStrengthScore = 7

// commonPasswords disqualify any password containing them.
var commonPasswords = []string{"password", "123456", "qwerty", "admin", "letmein"}

// Strength describes how guessable a password is.
type Strength struct {
	Score      int
	Level      string
	Feedback   []string
	Percentage float64
}

// PasswordStrength scores a password from 0 to 7.
//
// One point each for reaching 8, 12 and 16 characters and for using lower
// case, upper case, digits and symbols. Digits-only costs two points,
// letters-only one, a run of three identical characters one. Containing a
// well-known password zeroes the score.
func PasswordStrength(password string) Strength {
	if password == "" {
		return Strength{Score: 0, Level: StrengthNone, Feedback: []string{"Password is required"}}
	}

	score := 0
	var feedback []string

	n := utf8.RuneCountInString(password)
	for _, threshold := range []int{8, 12, 16} {
		if n >= threshold {
			score++
		}
	}

	classes := classify(password)
	for _, present := range []bool{classes.lower, classes.upper, classes.digit, classes.special} {
		if present {
			score++
		}
	}

	if classes.digit && !classes.lower && !classes.upper && !classes.special {
		score = max(0, score-2)
		feedback = append(feedback, "Avoid using only numbers")
	}
	if (classes.lower || classes.upper) && !classes.digit && !classes.special {
		score = max(0, score-1)
		feedback = append(feedback, "Add numbers or symbols")
	}
	if hasRepeatedRun(password, 3) {
		score = max(0, score-1)
		feedback = append(feedback, "Avoid repeated characters")
	}

	lower := strings.ToLower(password)
	for _, common := range commonPasswords {
		if strings.Contains(lower, common) {
			score = 0
			feedback = append(feedback, "This password is too common")
			break
		}
	}

	level := StrengthWeak
	switch {
	case score >= 7:
		level = StrengthStrong
	case score >= 4:
		level = StrengthMedium
	}

	if level == StrengthWeak {
		if n < 8 {
			feedback = append(feedback, "Make it at least 8 characters")
		}
		if !classes.upper {
			feedback = append(feedback, "Add uppercase letters")
		}
		if !classes.digit {
			feedback = append(feedback, "Add numbers")
		}
		if !classes.special {
			feedback = append(feedback, "Add special characters")
		}
	}

	return Strength{
		Score:      score,
		Level:      level,
		Feedback:   feedback,
		Percentage: math.Min(100, float64(score)/maxStrengthScore*100),
	}
}

// hasRepeatedRun reports whether s contains the same rune n or more times in a row.
func hasRepeatedRun(s string, n int) bool {
	run := 0
	var prev rune = -1
	for _, r := range s {
		if r == prev {
			run++
		} else {
			run = 1
			prev = r
		}
		if run >= n {
			return true
		}
	}
	return false
}
