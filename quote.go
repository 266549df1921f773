package svcinstall

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// QuoteStyle selects how an argument vector is joined into one command line
type QuoteStyle int

const (
	// QuoteWindows follows the CommandLineToArgvW rules used by Windows services
	QuoteWindows QuoteStyle = iota
	// QuotePOSIX follows POSIX shell single-quote rules
	QuotePOSIX
	// QuoteSystemd follows systemd ExecStart= rules
	QuoteSystemd
)

// QuoteStyle string constants
const (
	quoteWindowsStr = "windows"
	quotePOSIXStr   = "posix"
	quoteSystemdStr = "systemd"
)

// String returns the string representation of the style
func (q QuoteStyle) String() string {
	switch q {
	case QuotePOSIX:
		return quotePOSIXStr
	case QuoteSystemd:
		return quoteSystemdStr
	default:
		return quoteWindowsStr
	}
}

// ParseQuoteStyle parses a style name; "" selects the host default
func ParseQuoteStyle(s string) (QuoteStyle, error) {
	switch strings.ToLower(s) {
	case "":
		return HostQuoteStyle(), nil
	case quoteWindowsStr:
		return QuoteWindows, nil
	case quotePOSIXStr:
		return QuotePOSIX, nil
	case quoteSystemdStr:
		return QuoteSystemd, nil
	default:
		return QuoteWindows, fmt.Errorf("%w: unknown quote style %q", ErrInvalidArgument, s)
	}
}

// HostQuoteStyle returns the conventional style of the running host
func HostQuoteStyle() QuoteStyle {
	if runtime.GOOS == "windows" {
		return QuoteWindows
	}
	return QuotePOSIX
}

// JoinArgs joins args into a single command-line string. Absolute paths
// are always quoted so a script path with spaces survives as one argument.
func JoinArgs(args []string, style QuoteStyle) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, QuoteArg(arg, style, isAbsPath(arg)))
	}
	return strings.Join(parts, " ")
}

// QuoteArg quotes a single argument. When force is false the argument is
// returned unchanged unless it contains characters that need quoting.
func QuoteArg(s string, style QuoteStyle, force bool) string {
	switch style {
	case QuotePOSIX:
		return shellQuote(s, force)
	case QuoteSystemd:
		return systemdQuote(s, force)
	default:
		return windowsQuote(s, force)
	}
}

// SplitArgs splits a command line produced by JoinArgs back into arguments
func SplitArgs(s string, style QuoteStyle) ([]string, error) {
	switch style {
	case QuotePOSIX:
		return splitPOSIX(s, false)
	case QuoteSystemd:
		return splitPOSIX(s, true)
	default:
		return splitWindows(s), nil
	}
}

// isAbsPath reports whether s looks like an absolute path on any host
func isAbsPath(s string) bool {
	if filepath.IsAbs(s) || strings.HasPrefix(s, "/") || strings.HasPrefix(s, `\\`) {
		return true
	}
	// drive-letter paths such as C:\Tools or C:/Tools
	return len(s) >= 3 && s[1] == ':' && (s[2] == '\\' || s[2] == '/') &&
		((s[0] >= 'a' && s[0] <= 'z') || (s[0] >= 'A' && s[0] <= 'Z'))
}

// windowsQuote escapes s so CommandLineToArgvW yields it as one argument.
// Backslashes are literal except directly before a double quote.
func windowsQuote(s string, force bool) string {
	if s == "" {
		return `""`
	}
	if !force && !strings.ContainsAny(s, " \t\n\v\"") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	slashes := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			slashes++
		case '"':
			for ; slashes > 0; slashes-- {
				b.WriteByte('\\')
			}
			b.WriteByte('\\')
		default:
			slashes = 0
		}
		b.WriteByte(c)
	}
	// double trailing backslashes so the closing quote is not escaped
	for ; slashes > 0; slashes-- {
		b.WriteByte('\\')
	}
	b.WriteByte('"')
	return b.String()
}

// splitWindows parses a command line with the CommandLineToArgvW rules
func splitWindows(s string) []string {
	var (
		args    []string
		b       strings.Builder
		inQuote bool
		pending bool
	)

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case (c == ' ' || c == '\t') && !inQuote:
			if pending {
				args = append(args, b.String())
				b.Reset()
				pending = false
			}
			i++
		case c == '\\':
			n := 0
			for i < len(s) && s[i] == '\\' {
				n++
				i++
			}
			if i < len(s) && s[i] == '"' {
				b.WriteString(strings.Repeat(`\`, n/2))
				if n%2 == 1 {
					b.WriteByte('"')
					i++
				}
			} else {
				b.WriteString(strings.Repeat(`\`, n))
			}
			pending = true
		case c == '"':
			if inQuote && i+1 < len(s) && s[i+1] == '"' {
				b.WriteByte('"')
				i += 2
			} else {
				inQuote = !inQuote
				i++
			}
			pending = true
		default:
			b.WriteByte(c)
			pending = true
			i++
		}
	}
	if pending {
		args = append(args, b.String())
	}
	return args
}

// shellQuote escapes a string for safe use in shell scripts
func shellQuote(s string, force bool) string {
	if s == "" {
		return "''"
	}

	if !force && !needsShellQuoting(s) {
		return s
	}

	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}

// needsShellQuoting checks if a string contains characters that require shell quoting
func needsShellQuoting(s string) bool {
	// Characters that require quoting in shell
	const specialChars = " \t\n'\"\\$`!*?[](){}<>|&;~#"

	for _, r := range s {
		if strings.ContainsRune(specialChars, r) {
			return true
		}
	}
	return false
}

// systemdQuote escapes s for an ExecStart= line. Specifiers (%) and
// variable expansion ($) are doubled so they reach the process literally.
func systemdQuote(s string, force bool) string {
	escaped := strings.NewReplacer("%", "%%", "$", "$$").Replace(s)
	if s != "" && !force && !strings.ContainsAny(s, " \t\n\"'\\;") {
		return escaped
	}
	escaped = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`).Replace(escaped)
	return `"` + escaped + `"`
}

// splitPOSIX parses shell-style words. With systemd set, doubled % and $
// are collapsed and backslash escapes inside double quotes are decoded.
func splitPOSIX(s string, systemd bool) ([]string, error) {
	var (
		args    []string
		b       strings.Builder
		pending bool
	)

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case ' ', '\t', '\n':
			if pending {
				args = append(args, b.String())
				b.Reset()
				pending = false
			}
		case '\'':
			end := strings.IndexByte(s[i+1:], '\'')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated single quote in %q", ErrInvalidArgument, s)
			}
			b.WriteString(s[i+1 : i+1+end])
			i += end + 1
			pending = true
		case '"':
			i++
			for ; i < len(s) && s[i] != '"'; i++ {
				if s[i] == '\\' && i+1 < len(s) {
					i++
					switch {
					case systemd && s[i] == 'n':
						b.WriteByte('\n')
					case systemd && s[i] == 't':
						b.WriteByte('\t')
					default:
						b.WriteByte(s[i])
					}
					continue
				}
				b.WriteByte(s[i])
			}
			if i >= len(s) {
				return nil, fmt.Errorf("%w: unterminated double quote in %q", ErrInvalidArgument, s)
			}
			pending = true
		case '\\':
			if i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			}
			pending = true
		default:
			b.WriteByte(c)
			pending = true
		}
	}
	if pending {
		args = append(args, b.String())
	}

	if systemd {
		unescape := strings.NewReplacer("%%", "%", "$$", "$")
		for i := range args {
			args[i] = unescape.Replace(args[i])
		}
	}
	return args, nil
}
