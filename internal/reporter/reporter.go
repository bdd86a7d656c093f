package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/diskscout/internal/classifier"
	"github.com/fenilsonani/diskscout/internal/disks"
	"github.com/fenilsonani/diskscout/internal/scanner"
	"github.com/fenilsonani/diskscout/pkg/utils"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatTable   OutputFormat = "table"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatSummary OutputFormat = "summary"
)

// Report kinds carried in structured envelopes
const (
	KindFiles          = "files"
	KindSize           = "size"
	KindDuplicates     = "duplicates"
	KindIdentification = "identification"
	KindMismatches     = "mismatches"
	KindDisks          = "disks"
)

const (
	tableWidth = 120
	pathWidth  = 60
	timeLayout = "2006-01-02 15:04:05"
)

// Reporter handles report generation
type Reporter struct {
	writer io.Writer
	format OutputFormat
	theme  theme
	now    func() time.Time
	newID  func() string
}

// New creates a new Reporter. Colors are enabled for the summary format;
// they only appear when writer is a terminal.
func New(writer io.Writer, format OutputFormat) *Reporter {
	return &Reporter{
		writer: writer,
		format: format,
		theme:  newTheme(writer, true),
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// SetColor enables or disables styling in the summary format
func (r *Reporter) SetColor(enabled bool) {
	r.theme = newTheme(r.writer, enabled)
}

// dispatch routes a report to the renderer for the configured format
func (r *Reporter) dispatch(kind string, data any, summary, table func() error) error {
	switch r.format {
	case FormatSummary:
		return summary()
	case FormatTable:
		return table()
	case FormatJSON:
		encoder := json.NewEncoder(r.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(r.envelope(kind, data))
	case FormatYAML:
		encoder := yaml.NewEncoder(r.writer)
		defer encoder.Close()
		return encoder.Encode(r.envelope(kind, data))
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

func (r *Reporter) envelope(kind string, data any) envelope {
	return envelope{
		ReportID:  r.newID(),
		Kind:      kind,
		Timestamp: r.now().Format(time.RFC3339),
		Data:      data,
	}
}

func (r *Reporter) printf(format string, args ...any) {
	fmt.Fprintf(r.writer, format, args...)
}

func (r *Reporter) rule() {
	r.printf("%s\n", strings.Repeat("-", tableWidth))
}

func truncatePath(path string) string {
	if len(path) > pathWidth {
		return "..." + path[len(path)-(pathWidth-3):]
	}
	return path
}

// ReportFiles renders a list of file records under title
func (r *Reporter) ReportFiles(title string, result *scanner.ScanResult) error {
	view := newFilesView(title, result)

	summary := func() error {
		t := r.theme
		r.printf("%s\n", t.title.Render("=== "+title+" ==="))
		r.printf("Total Files: %d\n", view.TotalFiles)
		r.printf("Total Size: %s\n", t.size.Render(view.TotalSizeFormatted))
		if view.HiddenFiles > 0 {
			r.printf("Hidden Files: %d\n", view.HiddenFiles)
		}

		groups := result.GroupByExtension()
		if len(groups) > 0 {
			r.printf("\n%s\n", t.heading.Render("Breakdown by Extension:"))
			for _, ext := range sortedKeys(groups) {
				g := groups[ext]
				label := ext
				if label == "" {
					label = "(none)"
				}
				r.printf("  %s: %d files, %s\n", t.category.Render(label), g.TotalCount(), utils.FormatBytes(g.TotalSize))
			}
		}
		r.summarizeSkipped(result.Skipped)
		return nil
	}

	table := func() error {
		r.printf("%-60s | %-12s | %s\n", "Path", "Size", "Modified")
		r.rule()
		for _, f := range result.Files {
			r.printf("%-60s | %-12s | %s\n", truncatePath(f.Path), utils.FormatBytes(f.Size), f.ModTime.Format(timeLayout))
		}
		r.printf("\n")
		r.rule()
		r.printf("Total: %d files, %s\n", view.TotalFiles, view.TotalSizeFormatted)
		return nil
	}

	return r.dispatch(KindFiles, view, summary, table)
}

// ReportSize renders the total size of a directory tree
func (r *Reporter) ReportSize(root string, size uint64) error {
	view := sizeView{Root: root, TotalSize: size, TotalSizeFormatted: utils.FormatBytes(size)}

	plain := func() error {
		r.printf("%s: %s (%d bytes)\n", r.theme.path.Render(root), r.theme.size.Render(view.TotalSizeFormatted), size)
		return nil
	}

	return r.dispatch(KindSize, view, plain, plain)
}

// ReportDuplicates renders duplicate groups
func (r *Reporter) ReportDuplicates(result *scanner.DuplicateResult) error {
	view := newDuplicatesView(result)

	summary := func() error {
		t := r.theme
		r.printf("%s\n", t.title.Render("=== Duplicate Files ==="))
		if len(view.Groups) == 0 {
			r.printf("%s\n", t.ok.Render("No duplicates found"))
		}
		for i, g := range view.Groups {
			r.printf("\n%s %s each, %d copies, %s reclaimable\n",
				t.heading.Render(fmt.Sprintf("Group %d:", i+1)),
				t.size.Render(utils.FormatBytes(g.Size)), len(g.Files), utils.FormatBytes(g.WastedBytes))
			for _, p := range g.Files {
				r.printf("  %s\n", t.path.Render(p))
			}
		}
		r.printf("\nGroups: %d\nFiles hashed: %d\nReclaimable: %s\n",
			len(view.Groups), view.FilesHashed, t.size.Render(view.WastedBytesFormatted))
		r.summarizeSkipped(result.Skipped)
		return nil
	}

	table := func() error {
		r.printf("%-6s | %-12s | %-16s | %s\n", "Group", "Size", "Hash", "Path")
		r.rule()
		for i, g := range view.Groups {
			hash := g.Hash
			if len(hash) > 16 {
				hash = hash[:16]
			}
			for _, p := range g.Files {
				r.printf("%-6d | %-12s | %-16s | %s\n", i+1, utils.FormatBytes(g.Size), hash, p)
			}
		}
		r.printf("\n")
		r.rule()
		r.printf("Total: %d groups, %s reclaimable\n", len(view.Groups), view.WastedBytesFormatted)
		return nil
	}

	return r.dispatch(KindDuplicates, view, summary, table)
}

// ReportIdentification renders files grouped by content category
func (r *Reporter) ReportIdentification(id *classifier.Identification) error {
	view := newIdentificationView(id)

	summary := func() error {
		t := r.theme
		r.printf("%s\n", t.title.Render("=== Content Categories ==="))
		for _, c := range view.Categories {
			r.printf("  %s: %d files, %s\n", t.category.Render(c.Category), c.Count, utils.FormatBytes(c.TotalSize))
		}
		r.printf("\nIdentified: %d\n", id.Count())
		r.summarizeSkipped(id.Skipped)
		return nil
	}

	table := func() error {
		r.printf("%-12s | %s\n", "Category", "Path")
		r.rule()
		for _, c := range view.Categories {
			for _, p := range c.Files {
				r.printf("%-12s | %s\n", c.Category, p)
			}
		}
		return nil
	}

	return r.dispatch(KindIdentification, view, summary, table)
}

// ReportMismatches renders files whose extension disagrees with their content
func (r *Reporter) ReportMismatches(mismatches []classifier.Mismatch) error {
	view := newMismatchesView(mismatches)

	summary := func() error {
		t := r.theme
		r.printf("%s\n", t.title.Render("=== Extension Mismatches ==="))
		if view.Count == 0 {
			r.printf("%s\n", t.ok.Render("All extensions match their content"))
			return nil
		}
		for _, m := range view.Files {
			ext := m.Extension
			if ext == "" {
				ext = "(none)"
			}
			r.printf("  %s\n    extension: %s, content: %s\n", t.path.Render(m.Path), t.warning.Render(ext), m.DetectedMIME)
		}
		r.printf("\nMismatched: %d\n", view.Count)
		return nil
	}

	table := func() error {
		r.printf("%-60s | %-10s | %s\n", "Path", "Extension", "Detected")
		r.rule()
		for _, m := range view.Files {
			r.printf("%-60s | %-10s | %s\n", truncatePath(m.Path), m.Extension, m.DetectedMIME)
		}
		return nil
	}

	return r.dispatch(KindMismatches, view, summary, table)
}

// ReportDisks renders a disk inventory
func (r *Reporter) ReportDisks(inv *disks.Inventory) error {
	view := newDisksView(inv)

	summary := func() error {
		t := r.theme
		r.printf("%s\n", t.title.Render("=== Disks ==="))
		for i, d := range inv.Disks {
			if i > 0 {
				r.printf("\n")
			}
			r.printf("%s\n", d.String())
		}
		if len(inv.Skipped) > 0 {
			r.printf("\n%s\n", t.warning.Render(fmt.Sprintf("Skipped: %d", len(inv.Skipped))))
			for _, s := range inv.Skipped {
				r.printf("  %s\n", t.muted.Render(s.Error()))
			}
		}
		return nil
	}

	table := func() error {
		r.printf("%-4s | %-28s | %-8s | %-12s | %-10s | %-10s | %s\n", "ID", "Disk", "Volume", "File system", "Used", "Free", "Total")
		r.rule()
		for _, d := range inv.Disks {
			for _, p := range d.Partitions {
				fsName := string(p.FileSystem.Type)
				if p.FileSystem.RawType != "" {
					fsName = p.FileSystem.RawType
				}
				r.printf("%-4d | %-28s | %-8s | %-12s | %-10s | %-10s | %s\n",
					p.ID, d.Model, p.Name, fsName, utils.FormatBinary(p.UsedSpace()),
					utils.FormatBinary(p.AvailableSpace), utils.FormatBinary(p.TotalSpace))
			}
		}
		r.printf("\n")
		r.rule()
		r.printf("Total: %d disks, %d partitions\n", len(inv.Disks), inv.PartitionCount())
		return nil
	}

	return r.dispatch(KindDisks, view, summary, table)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r *Reporter) summarizeSkipped(skipped []scanner.Skipped) {
	if len(skipped) == 0 {
		return
	}
	line := fmt.Sprintf("Skipped: %d", len(skipped))
	denied := 0
	for _, s := range skipped {
		if s.IsPermission() {
			denied++
		}
	}
	if denied > 0 {
		line += fmt.Sprintf(" (%d permission denied)", denied)
	}
	r.printf("\n%s\n", r.theme.warning.Render(line))
}

// SaveToFile renders a report into the file at path
func SaveToFile(path string, format OutputFormat, render func(*Reporter) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	rep := New(file, format)
	rep.SetColor(false)
	return render(rep)
}
