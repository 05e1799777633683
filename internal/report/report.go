// Package report renders an audit outcome for humans and machines.
package report

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/bootaudit/bootaudit/pkg/color"
	"github.com/bootaudit/bootaudit/pkg/model"
)

// Human renders the report as terminal text. Every section that ran is
// shown; sections that could not run say so instead of vanishing.
func Human(r *model.Report) string {
	if r == nil {
		return ""
	}
	var sb strings.Builder

	sb.WriteString(color.Header(fmt.Sprintf("Boot audit of %s (kernel %s)", r.Hostname, r.KernelVersion)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Mode: %s", r.Mode))
	if r.SnapshotID != "" {
		sb.WriteString(fmt.Sprintf("   snapshot %s", color.SnapshotID(r.SnapshotID.ShortID())))
	}
	if r.BaselineID != "" {
		sb.WriteString(fmt.Sprintf("   baseline %s", color.SnapshotID(r.BaselineID.ShortID())))
	}
	sb.WriteString("\n\n")

	writeChanges(&sb, r)
	writeServices(&sb, r)
	writeModules(&sb, r)
	writeNotes(&sb, r)

	return sb.String()
}

// JSON renders the report as indented JSON with a trailing newline.
func JSON(r *model.Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

func writeChanges(sb *strings.Builder, r *model.Report) {
	if r.Bootstrap {
		sb.WriteString("No baseline existed; this run recorded the first snapshot.\n")
		sb.WriteString("Future runs will compare against it.\n\n")
		return
	}
	if r.Diff == nil {
		if r.SnapshotID != "" {
			sb.WriteString(fmt.Sprintf("Recorded snapshot %s.\n\n", color.SnapshotID(r.SnapshotID.ShortID())))
		}
		return
	}

	added := changesOf(r, model.ChangeAdded)
	removed := changesOf(r, model.ChangeRemoved)
	modified := changesOf(r, model.ChangeModified)

	if len(added) > 0 {
		sb.WriteString(fmt.Sprintf("Added (%d):\n", len(added)))
		for _, c := range added {
			sb.WriteString(changeLine("+", c))
		}
		sb.WriteString("\n")
	}
	if len(removed) > 0 {
		sb.WriteString(fmt.Sprintf("Removed (%d):\n", len(removed)))
		for _, c := range removed {
			sb.WriteString(changeLine("-", c))
		}
		sb.WriteString("\n")
	}
	if len(modified) > 0 {
		sb.WriteString(fmt.Sprintf("Modified (%d):\n", len(modified)))
		for _, c := range modified {
			sb.WriteString(changeLine("~", c))
		}
		sb.WriteString("\n")
	}
	if len(added)+len(removed)+len(modified) == 0 {
		sb.WriteString(color.Success("No changes detected.") + "\n\n")
	}

	writeSkippedSections(sb, r.Diff)
}

func changesOf(r *model.Report, kind model.ChangeKind) []model.AttributedChange {
	var out []model.AttributedChange
	for _, c := range r.Changes {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func changeLine(marker string, c model.AttributedChange) string {
	line := fmt.Sprintf("  %s %s", marker, c.Path)
	switch {
	case c.Kind == model.ChangeRemoved:
		// Removed files have no owner to report.
	case c.Managed():
		line += "  " + color.Dim("["+c.OwningPackage+"]")
	default:
		line += "  " + color.Error("[unmanaged]")
	}
	return line + "\n"
}

func writeSkippedSections(sb *strings.Builder, diff *model.DiffResult) {
	if len(diff.SkippedSections) == 0 {
		return
	}
	sb.WriteString("Sections not compared:\n")
	for _, section := range model.Sections {
		if reason, ok := diff.SkippedSections[section]; ok {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", color.Section(string(section)), color.Warning(reason)))
		}
	}
	sb.WriteString("\n")
}

func writeServices(sb *strings.Builder, r *model.Report) {
	if r.Services == nil {
		sb.WriteString("Services: not checked\n\n")
		return
	}
	sb.WriteString(fmt.Sprintf("Services: %d enabled, %d SAFE, %d UNSAFE, %d REVIEW\n",
		r.ServicesChecked,
		r.ServiceCount(model.CategorySafe),
		r.ServiceCount(model.CategoryUnsafe),
		r.ServiceCount(model.CategoryReview)))
	if unsafe := serviceNames(r, model.CategoryUnsafe); len(unsafe) > 0 {
		sb.WriteString(fmt.Sprintf("  UNSAFE: %s\n", color.Error(strings.Join(unsafe, ", "))))
	}
	if review := serviceNames(r, model.CategoryReview); len(review) > 0 {
		sb.WriteString(fmt.Sprintf("  REVIEW: %s\n", color.Warning(strings.Join(review, ", "))))
	}
	sb.WriteString("\n")
}

func serviceNames(r *model.Report, cat model.ServiceCategory) []string {
	var names []string
	for _, s := range r.Services {
		if s.Category == cat {
			names = append(names, s.Name)
		}
	}
	return names
}

func writeModules(sb *strings.Builder, r *model.Report) {
	if r.Modules == nil {
		sb.WriteString("Kernel modules: not checked\n\n")
		return
	}
	flagged := 0
	for _, f := range r.Modules {
		if f.Flagged() {
			flagged++
		}
	}
	sb.WriteString(fmt.Sprintf("Kernel modules: %d loaded, %d flagged\n", r.ModulesChecked, flagged))
	for _, f := range r.Modules {
		if !f.Flagged() {
			continue
		}
		sb.WriteString(findingLine(f))
	}
	sb.WriteString("\n")
}

func findingLine(f model.ModuleFinding) string {
	reasons := make([]string, len(f.Reasons))
	for i, reason := range f.Reasons {
		reasons[i] = string(reason)
	}

	var details []string
	if f.TaintFlags != "" {
		details = append(details, "taint "+f.TaintFlags)
	}
	if f.Signer != "" {
		details = append(details, "signer "+strconv.Quote(f.Signer))
	} else {
		details = append(details, "no signer")
	}

	return fmt.Sprintf("  %s: %s (%s)\n",
		color.Highlight(f.Name),
		color.Warning(strings.Join(reasons, ", ")),
		strings.Join(details, ", "))
}

func writeNotes(sb *strings.Builder, r *model.Report) {
	if len(r.Notes) == 0 {
		return
	}
	sb.WriteString("Notes:\n")
	for _, note := range r.Notes {
		sb.WriteString(fmt.Sprintf("  - %s\n", color.Warning(note)))
	}
}
