// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

// Package botdetect decides whether a session is driven by automation or a
// human operator. The verdict combines known tooling signatures, inter-command
// timing, command repetition, and credential patterns into opposing bot and
// human scores; the spread between them picks the attacker type.
package botdetect

import (
	"regexp"
	"strings"
	"time"

	"github.com/pmoreau84/apiarius/internal/models"
)

// Analysis is the full bot/human assessment of a session.
type Analysis struct {
	Type       models.AttackerType `json:"attacker_type"`
	Confidence float64             `json:"confidence"`
	BotScore   int                 `json:"bot_score"`
	HumanScore int                 `json:"human_score"`

	TypingSpeedSuspicious bool `json:"typing_speed_suspicious"`
	PatternRepetition     bool `json:"pattern_repetition"`
	KnownBotSignature     bool `json:"known_bot_signature"`
	SequentialCommands    bool `json:"sequential_commands"`
	TimingTooRegular      bool `json:"timing_too_regular"`
	CopyPasteDetected     bool `json:"copy_paste_detected"`

	AvgCommandInterval float64 `json:"avg_command_interval,omitempty"`
	CommandVariance    float64 `json:"command_variance,omitempty"`
	UniqueCommandRatio float64 `json:"unique_command_ratio"`

	SignaturesMatched []string `json:"signatures_matched,omitempty"`
}

// Input is the per-session evidence handed to the detector.
type Input struct {
	Commands      []string
	Timestamps    []time.Time
	LoginAttempts int
	Usernames     []string
	Passwords     []string
}

type signature struct {
	re   *regexp.Regexp
	name string
}

// knownBotSignatures match tooling fingerprints in the concatenated command
// stream. Each hit is worth 25 bot points.
var knownBotSignatures = []struct {
	pattern string
	name    string
}{
	{`cd\s+/tmp.*busybox`, "mirai"},
	{`cat\s+/proc/mounts.*busybox`, "mirai"},
	{`\./\w+\s+\w+\.[\w\.]+`, "mirai-dropper"},

	{`uname\s+-a.*cat\s+/proc/cpuinfo`, "botnet-recon"},
	{`(wget|curl).*\|\s*(sh|bash)`, "dropper"},
	{`echo.*>>\s*/etc/crontab`, "cron-persistence"},

	{`^root$|^admin$|^password$|^123456$`, "common-creds"},

	{`xmrig|cpuminer|minerd`, "cryptominer"},
	{`stratum\+tcp`, "mining-pool"},

	{`rm\s+-rf\s+/tmp/\*.*wget`, "cleanup-download"},
	{`chmod\s+777.*\./`, "chmod-execute"},
	{`nohup.*&\s*$`, "background-exec"},
}

// botCommandSequences are recon/dropper playbooks seen verbatim in the wild.
// A sequence matches when its steps appear in order, not necessarily adjacent.
var botCommandSequences = [][]string{
	{"uname -a", "cat /proc/cpuinfo", "free -m"},
	{"cd /tmp", "wget", "chmod", "./"},
	{"cat /etc/passwd", "cat /etc/shadow"},
	{"w", "uname -a", "cat /proc/cpuinfo"},
	{"ps aux", "kill -9", "rm -rf"},
}

var interactiveCommands = []string{"vim", "vi", "nano", "less", "more", "top", "htop"}

var humanHabitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bls\s+-la\b`),
	regexp.MustCompile(`\bcd\s+\.\.`),
	regexp.MustCompile(`\bpwd\b`),
}

var commonUsernames = map[string]struct{}{
	"root": {}, "admin": {}, "user": {}, "test": {}, "guest": {}, "ubuntu": {}, "pi": {},
}

var commonPasswords = map[string]struct{}{
	"123456": {}, "password": {}, "admin": {}, "root": {}, "12345678": {},
	"qwerty": {}, "abc123": {}, "111111": {}, "123123": {}, "admin123": {},
}

// Detector scores sessions for automation. Stateless and safe for concurrent
// use once constructed.
type Detector struct {
	signatures  []signature
	minCommands int
}

// New compiles the signature table. minCommands is the floor below which the
// verdict stays unknown; evidence from one or two commands is noise.
func New(minCommands int) *Detector {
	d := &Detector{minCommands: minCommands}
	for _, s := range knownBotSignatures {
		d.signatures = append(d.signatures, signature{
			re:   regexp.MustCompile("(?i)" + s.pattern),
			name: s.name,
		})
	}
	return d
}

// NewDefault builds a Detector with the production command floor of 3.
func NewDefault() *Detector {
	return New(3)
}

// Analyze runs every heuristic over the session evidence and returns the
// verdict. Sessions below the command floor come back unknown with zero
// confidence.
func (d *Detector) Analyze(in Input) Analysis {
	a := Analysis{Type: models.AttackerUnknown}

	if len(in.Commands) < d.minCommands {
		return a
	}

	d.checkSignatures(&a, in.Commands)
	if len(in.Timestamps) > 1 {
		d.analyzeTiming(&a, in.Timestamps)
	}
	d.analyzeCommandPatterns(&a, in.Commands)
	if len(in.Usernames) > 0 || len(in.Passwords) > 0 {
		d.analyzeCredentials(&a, in.Usernames, in.Passwords)
	}
	if in.LoginAttempts > 0 {
		d.analyzeLoginAttempts(&a, in.LoginAttempts)
	}

	d.finalize(&a)
	return a
}

func (d *Detector) checkSignatures(a *Analysis, commands []string) {
	fullText := strings.Join(commands, " ")
	for _, s := range d.signatures {
		if s.re.MatchString(fullText) {
			a.KnownBotSignature = true
			a.SignaturesMatched = append(a.SignaturesMatched, s.name)
			a.BotScore += 25
		}
	}
}

func (d *Detector) analyzeTiming(a *Analysis, timestamps []time.Time) {
	var intervals []float64
	for i := 1; i < len(timestamps); i++ {
		iv := timestamps[i].Sub(timestamps[i-1]).Seconds()
		if iv >= 0 {
			intervals = append(intervals, iv)
		}
	}
	if len(intervals) == 0 {
		return
	}

	var sum float64
	for _, iv := range intervals {
		sum += iv
	}
	avg := sum / float64(len(intervals))
	a.AvgCommandInterval = avg

	if len(intervals) > 1 {
		var variance float64
		for _, iv := range intervals {
			variance += (iv - avg) * (iv - avg)
		}
		variance /= float64(len(intervals))
		a.CommandVariance = variance

		// Clockwork pacing is the strongest automation tell.
		if variance < 0.5 && len(intervals) >= 3 {
			a.TimingTooRegular = true
			a.BotScore += 20
		}
	}

	if avg < 0.5 {
		a.TypingSpeedSuspicious = true
		a.BotScore += 30
	}

	// Irregular multi-second gaps read as a person at a keyboard.
	if avg >= 2.0 && avg <= 10.0 && a.CommandVariance > 2 {
		a.HumanScore += 20
	}
}

func (d *Detector) analyzeCommandPatterns(a *Analysis, commands []string) {
	unique := make(map[string]struct{}, len(commands))
	for _, c := range commands {
		unique[c] = struct{}{}
	}
	a.UniqueCommandRatio = float64(len(unique)) / float64(len(commands))

	if a.UniqueCommandRatio < 0.5 {
		a.PatternRepetition = true
		a.BotScore += 15
	}

	lowered := make([]string, len(commands))
	for i, c := range commands {
		lowered[i] = strings.ToLower(strings.TrimSpace(c))
	}
	for _, seq := range botCommandSequences {
		if containsSequence(lowered, seq) {
			a.SequentialCommands = true
			a.BotScore += 20
			break
		}
	}

	for _, c := range commands {
		if len(c) > 200 {
			a.CopyPasteDetected = true
			a.BotScore += 10
			break
		}
	}

	for _, c := range lowered {
		matched := false
		for _, ic := range interactiveCommands {
			if strings.Contains(c, ic) {
				a.HumanScore += 25
				matched = true
				break
			}
		}
		if matched {
			break
		}
	}

	fullText := strings.Join(commands, " ")
	for _, p := range humanHabitPatterns {
		if p.MatchString(fullText) {
			a.HumanScore += 10
			break
		}
	}
}

func (d *Detector) analyzeCredentials(a *Analysis, usernames, passwords []string) {
	userMatches := 0
	for _, u := range usernames {
		if _, ok := commonUsernames[strings.ToLower(u)]; ok {
			userMatches++
		}
	}
	passMatches := 0
	for _, p := range passwords {
		if _, ok := commonPasswords[strings.ToLower(p)]; ok {
			passMatches++
		}
	}
	if userMatches > 0 || passMatches > 0 {
		pts := (userMatches + passMatches) * 5
		if pts > 25 {
			pts = 25
		}
		a.BotScore += pts
	}

	// A username list that mostly repeats itself smells like a wordlist loop.
	if len(usernames) > 0 {
		uniqueUsers := make(map[string]struct{}, len(usernames))
		for _, u := range usernames {
			uniqueUsers[u] = struct{}{}
		}
		if float64(len(uniqueUsers)) < float64(len(usernames))*0.3 {
			a.BotScore += 15
		}
	}
}

func (d *Detector) analyzeLoginAttempts(a *Analysis, attempts int) {
	if attempts > 10 {
		pts := attempts
		if pts > 30 {
			pts = 30
		}
		a.BotScore += pts
	} else if attempts <= 3 {
		a.HumanScore += 10
	}
}

func (d *Detector) finalize(a *Analysis) {
	if a.BotScore > 100 {
		a.BotScore = 100
	}
	if a.HumanScore > 100 {
		a.HumanScore = 100
	}

	diff := a.BotScore - a.HumanScore
	switch {
	case diff >= 30:
		a.Type = models.AttackerBot
		a.Confidence = minFloat(0.95, 0.5+float64(diff)/100)
	case diff <= -30:
		a.Type = models.AttackerHuman
		a.Confidence = minFloat(0.95, 0.5+float64(-diff)/100)
	case a.BotScore > 40 && a.HumanScore > 40:
		a.Type = models.AttackerHybrid
		a.Confidence = 0.6
	default:
		a.Type = models.AttackerUnknown
		a.Confidence = maxFloat(0.3, absFloat(float64(diff))/100)
	}
}

func containsSequence(commands, sequence []string) bool {
	idx := 0
	for _, cmd := range commands {
		if idx < len(sequence) && strings.Contains(cmd, sequence[idx]) {
			idx++
			if idx == len(sequence) {
				return true
			}
		}
	}
	return false
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
