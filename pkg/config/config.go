// Package config implements per-buffer options loading, the prefs-file
// "options-only" bootstrap, and the virtual-extensions table (component:
// configuration, grounded on prefs.c).
package config

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/vigna-ne/ne/pkg/buffer"
	"github.com/vigna-ne/ne/pkg/dispatch"
	"github.com/vigna-ne/ne/pkg/status"
)

// LoadPrefsFile feeds path's lines, one at a time, through
// ctx.Registry.ParseCommandLine with execOnlyOptions set, then dispatches
// whatever it resolves to — the "options-only" prefs bootstrap, which
// runs before any screen exists and so must refuse anything but option
// commands (CAN_EXECUTE_ONLY_OPTIONS). A missing file is not an error:
// auto-prefs are optional.
func LoadPrefsFile(path string, ctx *dispatch.Context) status.Status {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return status.OK
		}
		return status.CANT_OPEN_FILE
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		name, intArg, strArg, st := ctx.Registry.ParseCommandLine(line, true)
		if !st.OK() {
			return st
		}
		if name == "" {
			continue
		}
		if st := dispatch.Dispatch(ctx, name, intArg, strArg); !st.OK() {
			return st
		}
	}
	if err := scanner.Err(); err != nil {
		return status.IO_ERROR
	}
	return status.OK
}

// VirtualExtension is one (glob, maxLine, regex) rule mapping a file
// whose first maxLine lines match regex to ext, grounded on prefs.c's
// virt_ext table. Whether a rule is probed at all for a document that
// already has a real filename extension is decided by the table's
// ExtraExt allow-list, not by the rule itself.
type VirtualExtension struct {
	Ext           string
	MaxLine       int64
	Regex         *regexp.Regexp
	CaseSensitive bool
}

// VirtualExtensionTable is the loaded, merged set of rules: named
// extensions with their content regex, plus the extra real-filename
// extensions (ExtraExt, matched as globs) that are allowed to be probed
// at all.
type VirtualExtensionTable struct {
	Rules    []VirtualExtension
	ExtraExt []string // real filename extensions eligible for virtual-extension probing
	maxLine  int64
}

var virtLinePattern = regexp.MustCompile(`^\s*(\w+)\s+([0-9]+)(i?)\s+(.+\S)\s*$|^\.([^ \t/]+)\s*$`)

// LoadVirtualExtensions parses dirs in order (global prefs dir first,
// then user prefs dir, matching load_virtual_extensions' override
// order) and merges their ".extensions"/"extensions" files into one
// table; a later directory's entry for the same extension replaces an
// earlier one.
func LoadVirtualExtensions(globalDir, userDir string) (*VirtualExtensionTable, status.Status) {
	t := &VirtualExtensionTable{}
	if globalDir != "" {
		if st := t.merge(filepath.Join(globalDir, "extensions")); !st.OK() && st != status.FILE_DOES_NOT_EXIST {
			return nil, st
		}
	}
	if userDir != "" {
		if st := t.merge(filepath.Join(userDir, ".extensions")); !st.OK() && st != status.FILE_DOES_NOT_EXIST {
			return nil, st
		}
	}
	for _, r := range t.Rules {
		if r.MaxLine > t.maxLine {
			t.maxLine = r.MaxLine
		}
	}
	return t, status.OK
}

func (t *VirtualExtensionTable) merge(path string) status.Status {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return status.FILE_DOES_NOT_EXIST
		}
		return status.CANT_OPEN_FILE
	}
	for _, line := range strings.Split(string(data), "\n") {
		m := virtLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if m[1] != "" {
			maxLine, err := strconv.ParseInt(m[2], 0, 64)
			if err != nil || maxLine < 1 {
				maxLine = 1<<63 - 1
			}
			expr := m[4]
			if m[3] == "i" {
				expr = "(?i)" + expr
			}
			re, err := regexp.Compile(expr)
			if err != nil {
				continue
			}
			rule := VirtualExtension{Ext: m[1], MaxLine: maxLine, Regex: re, CaseSensitive: m[3] != "i"}
			replaced := false
			for i := range t.Rules {
				if t.Rules[i].Ext == rule.Ext {
					t.Rules[i] = rule
					replaced = true
					break
				}
			}
			if !replaced {
				t.Rules = append(t.Rules, rule)
			}
		} else if m[5] != "" {
			found := false
			for _, e := range t.ExtraExt {
				if e == m[5] {
					found = true
					break
				}
			}
			if !found {
				t.ExtraExt = append(t.ExtraExt, m[5])
			}
		}
	}
	return status.OK
}

// Resolve returns the virtual extension for b, per virtual_extension():
// if the buffer's real filename already carries a recognized extension,
// only the ExtraExt allow-list gates whether virtual extensions are
// probed at all; then every rule is matched against the buffer's first
// MaxLine lines (case-(in)sensitively per rule), and the extension whose
// match occurs on the earliest line wins.
func (t *VirtualExtensionTable) Resolve(b *buffer.Buffer, filenameExt string) (string, bool) {
	if len(t.Rules) == 0 {
		return "", false
	}
	if filenameExt != "" {
		allowed := false
		for _, e := range t.ExtraExt {
			if matched, _ := filepath.Match(e, filenameExt); matched {
				allowed = true
				break
			}
		}
		if !allowed {
			return "", false
		}
	}

	lineLimit := t.maxLine
	if lineLimit > b.NumLines {
		lineLimit = b.NumLines
	}

	var content strings.Builder
	for i := int64(0); i < lineLimit; i++ {
		content.Write(b.NthLineDesc(i).Bytes())
		content.WriteByte('\n')
	}
	text := content.String()

	earliestLine := int64(-1)
	ext := ""
	for _, rule := range t.Rules {
		scanLimit := rule.MaxLine
		if scanLimit > lineLimit {
			scanLimit = lineLimit
		}
		loc := firstMatchWithinLines(rule.Regex, text, scanLimit)
		if loc < 0 {
			continue
		}
		if earliestLine < 0 || loc < earliestLine {
			earliestLine = loc
			ext = rule.Ext
		}
	}
	return ext, ext != ""
}

// firstMatchWithinLines returns the 0-based line number of the first
// match of re within the first maxLines lines of text, or -1.
func firstMatchWithinLines(re *regexp.Regexp, text string, maxLines int64) int64 {
	lines := strings.SplitAfter(text, "\n")
	for i, line := range lines {
		if int64(i) >= maxLines {
			break
		}
		if re.MatchString(line) {
			return int64(i)
		}
	}
	return -1
}
