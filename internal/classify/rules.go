// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

package classify

import "github.com/pmoreau84/apiarius/internal/models"

// commandRules is the ordered classification table. Order is load-bearing:
// evaluation is first-match-wins, so severity assignment depends on keeping
// specific/dangerous patterns ahead of broader ones. Benign patterns sit at
// the bottom on purpose.
var commandRules = []Rule{
	// Reconnaissance
	{`\buname\b`, models.CategoryRecon, models.SeverityLow, "System info gathering", []string{"T1082"}},
	{`\bhostname\b`, models.CategoryRecon, models.SeverityLow, "Hostname discovery", []string{"T1082"}},
	{`\bwhoami\b`, models.CategoryRecon, models.SeverityLow, "User discovery", []string{"T1033"}},
	{`\bid\b`, models.CategoryRecon, models.SeverityLow, "User/group discovery", []string{"T1033"}},
	{`\bcat\s+/etc/passwd\b`, models.CategoryRecon, models.SeverityMedium, "User enumeration", []string{"T1087"}},
	{`\bcat\s+/etc/shadow\b`, models.CategoryCredential, models.SeverityCritical, "Password hash access", []string{"T1003"}},
	{`\bcat\s+/etc/hosts\b`, models.CategoryRecon, models.SeverityLow, "Network discovery", []string{"T1016"}},
	{`\bifconfig\b|\bip\s+a`, models.CategoryRecon, models.SeverityLow, "Network config discovery", []string{"T1016"}},
	{`\bnetstat\b|\bss\s+-`, models.CategoryRecon, models.SeverityMedium, "Network connections discovery", []string{"T1049"}},
	{`\bps\s+aux|\bps\s+-ef`, models.CategoryRecon, models.SeverityLow, "Process discovery", []string{"T1057"}},
	{`\btop\b|\bhtop\b`, models.CategoryRecon, models.SeverityInfo, "Process monitoring", []string{"T1057"}},
	{`\bdf\b|\bdu\b`, models.CategoryRecon, models.SeverityInfo, "Disk usage discovery", []string{"T1082"}},
	{`\bfree\b|\bcat\s+/proc/meminfo`, models.CategoryRecon, models.SeverityInfo, "Memory info", []string{"T1082"}},
	{`\bcat\s+/proc/cpuinfo`, models.CategoryRecon, models.SeverityInfo, "CPU info", []string{"T1082"}},
	{`\blscpu\b`, models.CategoryRecon, models.SeverityInfo, "CPU architecture", []string{"T1082"}},
	{`\blsb_release\b|\bcat\s+/etc/.*release`, models.CategoryRecon, models.SeverityLow, "OS version discovery", []string{"T1082"}},
	{`\benv\b|\bprintenv\b`, models.CategoryRecon, models.SeverityLow, "Environment discovery", []string{"T1082"}},
	{`\bfind\s+/`, models.CategoryRecon, models.SeverityMedium, "File system enumeration", []string{"T1083"}},
	{`\blocate\b`, models.CategoryRecon, models.SeverityLow, "File search", []string{"T1083"}},
	{`\bwhich\b|\bwhereis\b`, models.CategoryRecon, models.SeverityInfo, "Binary location", []string{"T1083"}},
	{`\bls\s+-la\s+/root`, models.CategoryRecon, models.SeverityMedium, "Root directory enumeration", []string{"T1083"}},
	{`\bcat\s+/root/\.bash_history`, models.CategoryRecon, models.SeverityHigh, "Command history access", []string{"T1552"}},
	{`\bhistory\b`, models.CategoryRecon, models.SeverityLow, "Command history", []string{"T1552"}},
	{`\blast\b|\blastlog\b`, models.CategoryRecon, models.SeverityLow, "Login history", []string{"T1087"}},
	{`\bw\b\s*$|\bwho\b`, models.CategoryRecon, models.SeverityLow, "Logged users discovery", []string{"T1033"}},
	{`\bcrontab\s+-l`, models.CategoryRecon, models.SeverityMedium, "Scheduled tasks discovery", []string{"T1053"}},
	{`\biptables\s+-L`, models.CategoryRecon, models.SeverityMedium, "Firewall rules discovery", []string{"T1016"}},
	{`\bsystemctl\s+list`, models.CategoryRecon, models.SeverityLow, "Service enumeration", []string{"T1007"}},
	{`\bservice\s+--status-all`, models.CategoryRecon, models.SeverityLow, "Service status", []string{"T1007"}},
	{`\bdpkg\s+-l|\brpm\s+-qa`, models.CategoryRecon, models.SeverityLow, "Installed packages", []string{"T1518"}},
	{`\bapt\s+list\s+--installed`, models.CategoryRecon, models.SeverityLow, "Installed packages", []string{"T1518"}},
	{`\blsmod\b`, models.CategoryRecon, models.SeverityLow, "Kernel modules", []string{"T1082"}},
	{`\bdmesg\b`, models.CategoryRecon, models.SeverityLow, "Kernel messages", []string{"T1082"}},
	{`\bcat\s+/var/log/`, models.CategoryRecon, models.SeverityMedium, "Log file access", []string{"T1005"}},
	{`\bnmap\b`, models.CategoryRecon, models.SeverityHigh, "Network scanning", []string{"T1046"}},
	{`\bmasscan\b`, models.CategoryRecon, models.SeverityHigh, "Port scanning", []string{"T1046"}},
	{`\barp\s+-a`, models.CategoryRecon, models.SeverityMedium, "ARP table discovery", []string{"T1016"}},
	{`\broute\b|\bip\s+route`, models.CategoryRecon, models.SeverityLow, "Routing table", []string{"T1016"}},
	{`\bdig\b|\bnslookup\b|\bhost\b`, models.CategoryRecon, models.SeverityLow, "DNS lookup", []string{"T1016"}},

	// Credential access
	{`\bcat\s+.*\.ssh/`, models.CategoryCredential, models.SeverityCritical, "SSH key access", []string{"T1552.004"}},
	{`\bcat\s+.*id_rsa`, models.CategoryCredential, models.SeverityCritical, "Private key theft", []string{"T1552.004"}},
	{`\bcat\s+.*authorized_keys`, models.CategoryCredential, models.SeverityHigh, "SSH authorized keys", []string{"T1552.004"}},
	{`\bcat\s+.*\.gnupg/`, models.CategoryCredential, models.SeverityHigh, "GPG key access", []string{"T1552"}},
	{`\bcat\s+.*\.aws/credentials`, models.CategoryCredential, models.SeverityCritical, "AWS credentials", []string{"T1552.001"}},
	{`\bcat\s+.*\.docker/config`, models.CategoryCredential, models.SeverityHigh, "Docker credentials", []string{"T1552.001"}},
	{`\bcat\s+.*\.kube/config`, models.CategoryCredential, models.SeverityHigh, "Kubernetes config", []string{"T1552.001"}},
	{`\bcat\s+.*\.git-credentials`, models.CategoryCredential, models.SeverityHigh, "Git credentials", []string{"T1552.001"}},
	{`\bcat\s+.*\.netrc`, models.CategoryCredential, models.SeverityHigh, "Network credentials", []string{"T1552.001"}},
	{`\bcat\s+.*wp-config\.php`, models.CategoryCredential, models.SeverityHigh, "WordPress DB creds", []string{"T1552.001"}},
	{`\bcat\s+.*config\.php`, models.CategoryCredential, models.SeverityMedium, "PHP config access", []string{"T1552.001"}},
	{`\bcat\s+.*\.env`, models.CategoryCredential, models.SeverityHigh, "Environment secrets", []string{"T1552.001"}},
	{`\bstrings\b.*passwd|shadow`, models.CategoryCredential, models.SeverityHigh, "Credential extraction", []string{"T1003"}},
	{`\bjohn\b|\bhashcat\b`, models.CategoryCredential, models.SeverityCritical, "Password cracking", []string{"T1110.002"}},
	{`\bhydra\b|\bmedusa\b`, models.CategoryCredential, models.SeverityCritical, "Brute force tool", []string{"T1110"}},
	{`\bmimikatz\b`, models.CategoryCredential, models.SeverityCritical, "Credential dumping", []string{"T1003"}},

	// Download / staging
	{`\bwget\s+http`, models.CategoryDownload, models.SeverityHigh, "File download via wget", []string{"T1105"}},
	{`\bcurl\s+.*-[oO]`, models.CategoryDownload, models.SeverityHigh, "File download via curl", []string{"T1105"}},
	{`\bcurl\s+http.*\|\s*(sh|bash)`, models.CategoryDownload, models.SeverityCritical, "Remote script execution", []string{"T1105", "T1059"}},
	{`\bwget\s+.*\|\s*(sh|bash)`, models.CategoryDownload, models.SeverityCritical, "Remote script execution", []string{"T1105", "T1059"}},
	{`\bftp\s+`, models.CategoryDownload, models.SeverityMedium, "FTP transfer", []string{"T1105"}},
	{`\bscp\s+`, models.CategoryDownload, models.SeverityMedium, "SCP transfer", []string{"T1105"}},
	{`\brsync\s+`, models.CategoryDownload, models.SeverityMedium, "Rsync transfer", []string{"T1105"}},
	{`\btftp\s+`, models.CategoryDownload, models.SeverityHigh, "TFTP transfer", []string{"T1105"}},
	{`\bnc\s+.*-e|\bncat\s+`, models.CategoryDownload, models.SeverityCritical, "Netcat transfer/shell", []string{"T1105"}},
	{`\bpython.*http\.server|SimpleHTTP`, models.CategoryDownload, models.SeverityMedium, "Python HTTP server", []string{"T1105"}},

	// Execution
	{`\bchmod\s+\+x`, models.CategoryExecution, models.SeverityMedium, "Make file executable", []string{"T1059"}},
	{`\bchmod\s+777`, models.CategoryExecution, models.SeverityHigh, "Overly permissive chmod", []string{"T1222"}},
	{`\bpython\s+-c`, models.CategoryExecution, models.SeverityMedium, "Python one-liner", []string{"T1059.006"}},
	{`\bperl\s+-e`, models.CategoryExecution, models.SeverityMedium, "Perl one-liner", []string{"T1059"}},
	{`\bruby\s+-e`, models.CategoryExecution, models.SeverityMedium, "Ruby one-liner", []string{"T1059"}},
	{`\bphp\s+-r`, models.CategoryExecution, models.SeverityMedium, "PHP one-liner", []string{"T1059"}},
	{`\bbash\s+-c`, models.CategoryExecution, models.SeverityMedium, "Bash command execution", []string{"T1059.004"}},
	{`\bsh\s+-c`, models.CategoryExecution, models.SeverityMedium, "Shell command execution", []string{"T1059.004"}},
	{`\beval\b`, models.CategoryExecution, models.SeverityHigh, "Dynamic code execution", []string{"T1059"}},
	{`\bexec\b`, models.CategoryExecution, models.SeverityMedium, "Process execution", []string{"T1059"}},
	{`\bnohup\b`, models.CategoryExecution, models.SeverityMedium, "Background execution", []string{"T1059"}},
	{`\bscreen\s+-dm`, models.CategoryExecution, models.SeverityMedium, "Detached screen", []string{"T1059"}},
	{`\btmux\s+new.*-d`, models.CategoryExecution, models.SeverityMedium, "Detached tmux", []string{"T1059"}},
	{`\bat\s+|atq\b`, models.CategoryExecution, models.SeverityMedium, "Scheduled execution", []string{"T1053.002"}},
	{`\b\./[a-zA-Z]`, models.CategoryExecution, models.SeverityHigh, "Local binary execution", []string{"T1059"}},

	// Persistence
	{`\bcrontab\s+-e|\bcrontab\s+.*>`, models.CategoryPersist, models.SeverityHigh, "Cron job modification", []string{"T1053.003"}},
	{`echo.*>>\s*/etc/cron`, models.CategoryPersist, models.SeverityCritical, "Cron persistence", []string{"T1053.003"}},
	{`echo.*>>\s*.*\.bashrc`, models.CategoryPersist, models.SeverityHigh, "Bashrc persistence", []string{"T1546.004"}},
	{`echo.*>>\s*.*\.profile`, models.CategoryPersist, models.SeverityHigh, "Profile persistence", []string{"T1546.004"}},
	{`echo.*>>\s*/etc/rc\.local`, models.CategoryPersist, models.SeverityCritical, "RC local persistence", []string{"T1037.004"}},
	{`echo.*>>\s*.*authorized_keys`, models.CategoryPersist, models.SeverityCritical, "SSH key injection", []string{"T1098.004"}},
	{`\bsystemctl\s+enable`, models.CategoryPersist, models.SeverityHigh, "Service persistence", []string{"T1543.002"}},
	{`\bchkconfig\b.*on`, models.CategoryPersist, models.SeverityHigh, "Service persistence", []string{"T1543.002"}},
	{`\bupdate-rc\.d\b`, models.CategoryPersist, models.SeverityHigh, "Init script persistence", []string{"T1037"}},
	{`\buseradd\b|\badduser\b`, models.CategoryPersist, models.SeverityCritical, "User creation", []string{"T1136.001"}},
	{`\busermod\s+.*-aG.*sudo`, models.CategoryPersist, models.SeverityCritical, "Sudo group add", []string{"T1098"}},
	{`\bpasswd\b`, models.CategoryPersist, models.SeverityHigh, "Password change", []string{"T1098"}},
	{`echo.*>>\s*/etc/sudoers`, models.CategoryPersist, models.SeverityCritical, "Sudoers modification", []string{"T1548.003"}},
	{`\bvisudo\b`, models.CategoryPersist, models.SeverityHigh, "Sudoers edit", []string{"T1548.003"}},
	{`\bsed\s+.*-i.*sshd_config`, models.CategoryPersist, models.SeverityCritical, "SSH config modification", []string{"T1098"}},

	// Privilege escalation
	{`\bsudo\s+`, models.CategoryPrivesc, models.SeverityMedium, "Sudo usage", []string{"T1548.003"}},
	{`\bsu\s+-?\s*$|\bsu\s+root`, models.CategoryPrivesc, models.SeverityHigh, "Switch to root", []string{"T1548"}},
	{`\bsudo\s+-i|\bsudo\s+su`, models.CategoryPrivesc, models.SeverityHigh, "Root shell", []string{"T1548.003"}},
	{`SUID|SGID|find.*-perm.*4000`, models.CategoryPrivesc, models.SeverityHigh, "SUID binary search", []string{"T1548.001"}},
	{`\bcapabilities\b|getcap\b|setcap\b`, models.CategoryPrivesc, models.SeverityHigh, "Capabilities manipulation", []string{"T1548"}},
	{`LD_PRELOAD|LD_LIBRARY_PATH`, models.CategoryPrivesc, models.SeverityCritical, "Library injection", []string{"T1574.006"}},
	{`\bpkexec\b`, models.CategoryPrivesc, models.SeverityHigh, "Polkit execution", []string{"T1548"}},
	{`\bdirtycow\b|dirty_cow`, models.CategoryPrivesc, models.SeverityCritical, "Dirty COW exploit", []string{"T1068"}},

	// Defense evasion
	{`\brm\s+-rf\s+/var/log`, models.CategoryEvasion, models.SeverityCritical, "Log deletion", []string{"T1070.002"}},
	{`\brm\s+.*\.bash_history`, models.CategoryEvasion, models.SeverityHigh, "History deletion", []string{"T1070.003"}},
	{`\bhistory\s+-c`, models.CategoryEvasion, models.SeverityHigh, "History clearing", []string{"T1070.003"}},
	{`\bunset\s+HISTFILE`, models.CategoryEvasion, models.SeverityHigh, "History disable", []string{"T1070.003"}},
	{`HISTSIZE=0|HISTFILESIZE=0`, models.CategoryEvasion, models.SeverityHigh, "History disable", []string{"T1070.003"}},
	{`\bshred\b|\bwipe\b`, models.CategoryEvasion, models.SeverityHigh, "Secure deletion", []string{"T1070.004"}},
	{`\btouch\s+-t`, models.CategoryEvasion, models.SeverityMedium, "Timestamp modification", []string{"T1070.006"}},
	{`\bchattr\s+\+i`, models.CategoryEvasion, models.SeverityHigh, "File immutability", []string{"T1222"}},
	{`\biptables\s+-F`, models.CategoryEvasion, models.SeverityHigh, "Firewall flush", []string{"T1562.004"}},
	{`\bsetenforce\s+0`, models.CategoryEvasion, models.SeverityHigh, "SELinux disable", []string{"T1562.001"}},
	{`\bsystemctl\s+stop.*firewall`, models.CategoryEvasion, models.SeverityHigh, "Firewall stop", []string{"T1562.004"}},
	{`\bkillall\s+.*av|antivirus`, models.CategoryEvasion, models.SeverityCritical, "AV kill", []string{"T1562.001"}},
	{`base64\s+-d|base64\s+--decode`, models.CategoryEvasion, models.SeverityMedium, "Base64 decode", []string{"T1140"}},
	{`\bgunzip\b|\bbunzip2\b|\bxz\s+-d`, models.CategoryEvasion, models.SeverityLow, "Decompression", []string{"T1140"}},

	// Lateral movement
	{`\bssh\s+.*@`, models.CategoryLateral, models.SeverityHigh, "SSH connection", []string{"T1021.004"}},
	{`\bsshpass\b`, models.CategoryLateral, models.SeverityHigh, "SSH password auth", []string{"T1021.004"}},
	{`\bpsexec\b`, models.CategoryLateral, models.SeverityCritical, "PsExec usage", []string{"T1021.002"}},
	{`\bwinexe\b`, models.CategoryLateral, models.SeverityCritical, "WinExe usage", []string{"T1021.002"}},
	{`\brdp\b|\brdesktop\b|\bxfreerdp\b`, models.CategoryLateral, models.SeverityHigh, "RDP connection", []string{"T1021.001"}},
	{`\bsmb.*mount|mount.*cifs`, models.CategoryLateral, models.SeverityHigh, "SMB mount", []string{"T1021.002"}},
	{`\bwmic\b`, models.CategoryLateral, models.SeverityHigh, "WMI usage", []string{"T1021.006"}},

	// Exfiltration
	{`\btar\s+.*czf.*\|.*curl|nc|ssh`, models.CategoryExfil, models.SeverityCritical, "Archive exfiltration", []string{"T1048"}},
	{`\bzip\s+-r.*\|`, models.CategoryExfil, models.SeverityHigh, "Zip exfiltration", []string{"T1048"}},
	{`\bcat\s+.*\|\s*(nc|curl|wget)`, models.CategoryExfil, models.SeverityHigh, "File exfiltration", []string{"T1048"}},
	{`curl\s+.*-d\s*@|curl\s+.*--data.*@`, models.CategoryExfil, models.SeverityHigh, "Data upload", []string{"T1048"}},
	{`\bsendmail\b|\bmail\b.*<`, models.CategoryExfil, models.SeverityMedium, "Email exfiltration", []string{"T1048.003"}},
	{`dns.*txt.*record|nslookup.*-type=txt`, models.CategoryExfil, models.SeverityHigh, "DNS exfiltration", []string{"T1048.003"}},

	// Impact
	{`\brm\s+-rf\s+/`, models.CategoryImpact, models.SeverityCritical, "System wipe attempt", []string{"T1485"}},
	{`\bdd\s+if=/dev/zero`, models.CategoryImpact, models.SeverityCritical, "Disk wipe", []string{"T1485"}},
	{`\bmkfs\b`, models.CategoryImpact, models.SeverityCritical, "Filesystem format", []string{"T1485"}},
	{`\bkill\s+-9\s+-1`, models.CategoryImpact, models.SeverityCritical, "Kill all processes", []string{"T1489"}},
	{`\bshutdown\b|\breboot\b|\binit\s+0`, models.CategoryImpact, models.SeverityHigh, "System shutdown", []string{"T1529"}},
	{`\bhalt\b|\bpoweroff\b`, models.CategoryImpact, models.SeverityHigh, "System halt", []string{"T1529"}},
	{`:\(\)\{.*:\|:.*\}`, models.CategoryImpact, models.SeverityCritical, "Fork bomb", []string{"T1499"}},
	{`\bcryptsetup\b.*luksFormat`, models.CategoryImpact, models.SeverityCritical, "Encryption/Ransomware", []string{"T1486"}},
	{`\bopenssl\s+enc\s+-aes`, models.CategoryImpact, models.SeverityHigh, "File encryption", []string{"T1486"}},

	// Crypto mining
	{`\bxmrig\b|\bcpuminer\b|\bminerd\b`, models.CategoryImpact, models.SeverityHigh, "Crypto miner", []string{"T1496"}},
	{`stratum\+tcp://|pool\.`, models.CategoryImpact, models.SeverityHigh, "Mining pool connection", []string{"T1496"}},
	{`\bcoinhive\b|\bmonero\b`, models.CategoryImpact, models.SeverityHigh, "Crypto mining", []string{"T1496"}},

	// Benign (lowest priority)
	{`^ls\s*$|^ls\s+-[la]+\s*$`, models.CategoryBenign, models.SeverityInfo, "List directory", nil},
	{`^pwd\s*$`, models.CategoryBenign, models.SeverityInfo, "Print directory", nil},
	{`^cd\s+`, models.CategoryBenign, models.SeverityInfo, "Change directory", nil},
	{`^echo\s+`, models.CategoryBenign, models.SeverityInfo, "Echo command", nil},
	{`^cat\s+[^/]`, models.CategoryBenign, models.SeverityInfo, "Read file", nil},
	{`^exit\s*$|^logout\s*$`, models.CategoryBenign, models.SeverityInfo, "Session exit", nil},
	{`^clear\s*$`, models.CategoryBenign, models.SeverityInfo, "Clear screen", nil},
	{`^man\s+`, models.CategoryBenign, models.SeverityInfo, "Manual page", nil},
	{`^help\s*$|^--help`, models.CategoryBenign, models.SeverityInfo, "Help request", nil},
}
