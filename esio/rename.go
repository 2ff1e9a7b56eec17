package esio

import (
	stderrors "errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// restartFs is the filesystem restart rotation operates on. Tests swap in
// an in-memory filesystem; everything else sees the host.
var restartFs afero.Fs = afero.NewOsFs()

var (
	errTemplateNoHash    = stderrors.New("template contains no '#'")
	errTemplateSplitHash = stderrors.New("template contains multiple nonadjacent '#' runs")
	errIndexOverflow     = stderrors.New("restart index overflow")
)

// NextIndex matches name against a restart template whose basename holds
// exactly one contiguous run of '#' characters, and returns the matched
// decimal index plus one. A non-matching name yields (0, nil); a malformed
// template or an index increment that overflows yields an error.
func NextIndex(template, name string) (int, error) {
	next, err := nextIndex(template, name)
	if err != nil {
		return 0, raiseCause(EINVAL, err, err.Error())
	}
	return next, nil
}

// nextIndex is the non-raising core of NextIndex: directory scans consult
// it per entry, where a malformed stray entry must not trip the error
// handler.
func nextIndex(tmpl, name string) (int, error) {
	// Validate the template up front so a malformed one is reported
	// whatever name it is compared against.
	first := strings.IndexByte(tmpl, '#')
	if first < 0 {
		return 0, errTemplateNoHash
	}
	runEnd := first
	for runEnd < len(tmpl) && tmpl[runEnd] == '#' {
		runEnd++
	}
	if strings.IndexByte(tmpl[runEnd:], '#') >= 0 {
		return 0, errTemplateSplitHash
	}

	// Advance both until the first hash.
	i := 0
	for i < len(tmpl) && i < len(name) && tmpl[i] == name[i] {
		i++
	}
	if i == len(tmpl) {
		return 0, errTemplateNoHash
	}
	if tmpl[i] != '#' {
		return 0, nil // mismatch
	}
	if i >= len(name) || name[i] < '0' || name[i] > '9' {
		return 0, nil // mismatch, or a leading sign
	}

	// Find the final hash of the template.
	j := i
	for k := i + 1; k < len(tmpl); k++ {
		if tmpl[k] == '#' {
			j = k
		}
	}

	// Scan both backwards until the final hash is encountered.
	k, l := len(tmpl)-1, len(name)-1
	for k > j && l > i && tmpl[k] == name[l] {
		k--
		l--
	}
	if tmpl[k] != '#' {
		return 0, nil // mismatch
	}

	// The template must contain only the single hash run.
	for m := i; m < j; m++ {
		if tmpl[m] != '#' {
			return 0, errTemplateSplitHash
		}
	}

	curr, err := strconv.ParseUint(name[i:l+1], 10, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return 0, errIndexOverflow
		}
		return 0, nil // mismatch
	}
	if curr > math.MaxInt-1 {
		return 0, errIndexOverflow
	}
	return int(curr) + 1, nil
}

// RestartRename renames a newly written restart file into index zero of
// the template's slots, first shifting every existing indexed file one
// slot outward. Files whose shifted index would reach keep are neither
// renamed nor unlinked; such a file is replaced only when a shifted file
// is renamed onto its name.
//
// The template's basename must contain exactly one contiguous run of '#'
// characters, the minimum field width of the zero-padded decimal index.
// The width widens automatically when keep needs more digits.
func RestartRename(src, dstTemplate string, keep int) error {
	return restartRename(restartFs, src, dstTemplate, keep)
}

func restartRename(fs afero.Fs, src, dstTemplate string, keep int) error {
	if src == "" {
		return raise(EFAULT, "src is empty")
	}
	if dstTemplate == "" {
		return raise(EFAULT, "dstTemplate is empty")
	}
	if keep < 1 {
		return raise(EINVAL, "keep < 1")
	}

	// Stat src up front so a later rename failure cannot be mistaken for
	// a missing source.
	if _, err := fs.Stat(src); err != nil {
		return raiseCause(EFAILED, err, "unable to stat src during restart rename")
	}

	dir, base := filepath.Split(dstTemplate)
	if dir == "" {
		dir = "."
	}

	// Split the basename into prefix / hash run / suffix.
	hash := strings.IndexByte(base, '#')
	if hash < 0 {
		return raise(EINVAL, "dstTemplate must contain at least one '#'")
	}
	end := hash
	for end < len(base) && base[end] == '#' {
		end++
	}
	prefix, suffix := base[:hash], base[end:]
	if strings.ContainsRune(suffix, '#') {
		return raise(EINVAL, "dstTemplate cannot contain multiple nonadjacent '#' runs")
	}

	// Widen the field so every retained index fits comfortably.
	width := end - hash
	if n := len(strconv.Itoa(keep)); n > width {
		width = n
	}

	// Scan the directory for entries matching the template.
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return raiseCause(EFAILED, err, "unable to scan directory during restart rename")
	}
	type match struct {
		name string
		next int
	}
	var matches []match
	for _, entry := range entries {
		next, err := nextIndex(base, entry.Name())
		if err != nil || next <= 0 {
			// Malformed entries are skipped, not fatal: the template
			// itself was validated above.
			continue
		}
		matches = append(matches, match{entry.Name(), next})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].next != matches[j].next {
			return matches[i].next > matches[j].next
		}
		return matches[i].name > matches[j].name
	})

	// Shift matches outward, highest index first. Entries that would land
	// at or beyond the retention horizon stay put.
	for _, m := range matches {
		if m.next >= keep {
			continue
		}
		from := filepath.Join(dir, m.name)
		to := filepath.Join(dir, fmt.Sprintf("%s%0*d%s", prefix, width, m.next, suffix))
		if err := renameOverwrite(fs, from, to); err != nil {
			return raiseCause(EFAILED, err, fmt.Sprintf("error renaming %q to %q", from, to))
		}
	}

	// Finally, the rename this was all for.
	dst := filepath.Join(dir, fmt.Sprintf("%s%0*d%s", prefix, width, 0, suffix))
	if err := renameOverwrite(fs, src, dst); err != nil {
		return raiseCause(EFAILED, err, fmt.Sprintf("error renaming %q to %q", src, dst))
	}
	return nil
}

// renameOverwrite renames with rename(2) semantics: an existing
// destination is replaced. Some afero backends refuse to clobber, so a
// failed rename over an existing destination removes it and retries.
func renameOverwrite(fs afero.Fs, from, to string) error {
	err := fs.Rename(from, to)
	if err == nil {
		return nil
	}
	if _, statErr := fs.Stat(to); statErr != nil {
		return err
	}
	if removeErr := fs.Remove(to); removeErr != nil {
		return err
	}
	return fs.Rename(from, to)
}
