package reporter

import (
	"github.com/fenilsonani/diskscout/internal/classifier"
	"github.com/fenilsonani/diskscout/internal/disks"
	"github.com/fenilsonani/diskscout/internal/scanner"
	"github.com/fenilsonani/diskscout/pkg/utils"
)

// envelope wraps every structured report
type envelope struct {
	ReportID  string `json:"report_id" yaml:"report_id"`
	Kind      string `json:"kind" yaml:"kind"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Data      any    `json:"data" yaml:"data"`
}

type skipView struct {
	Path       string `json:"path" yaml:"path"`
	Reason     string `json:"reason" yaml:"reason"`
	Permission bool   `json:"permission_denied" yaml:"permission_denied"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

func skipViews(skipped []scanner.Skipped) []skipView {
	views := make([]skipView, 0, len(skipped))
	for _, s := range skipped {
		v := skipView{Path: s.Path, Reason: s.Reason.String(), Permission: s.IsPermission()}
		if s.Err != nil {
			v.Error = s.Err.Error()
		}
		views = append(views, v)
	}
	return views
}

type filesView struct {
	Title              string               `json:"title" yaml:"title"`
	TotalFiles         int                  `json:"total_files" yaml:"total_files"`
	TotalSize          uint64               `json:"total_size" yaml:"total_size"`
	TotalSizeFormatted string               `json:"total_size_formatted" yaml:"total_size_formatted"`
	HiddenFiles        int                  `json:"hidden_files" yaml:"hidden_files"`
	Files              []scanner.FileRecord `json:"files" yaml:"files"`
	Skipped            []skipView           `json:"skipped" yaml:"skipped"`
}

func newFilesView(title string, result *scanner.ScanResult) filesView {
	files := result.Files
	if files == nil {
		files = []scanner.FileRecord{}
	}
	return filesView{
		Title:              title,
		TotalFiles:         result.TotalCount(),
		TotalSize:          result.TotalSize,
		TotalSizeFormatted: utils.FormatBytes(result.TotalSize),
		HiddenFiles:        result.HiddenCount(),
		Files:              files,
		Skipped:            skipViews(result.Skipped),
	}
}

type sizeView struct {
	Root               string `json:"root" yaml:"root"`
	TotalSize          uint64 `json:"total_size" yaml:"total_size"`
	TotalSizeFormatted string `json:"total_size_formatted" yaml:"total_size_formatted"`
}

type groupView struct {
	Size        uint64   `json:"size" yaml:"size"`
	Hash        string   `json:"hash" yaml:"hash"`
	WastedBytes uint64   `json:"wasted_bytes" yaml:"wasted_bytes"`
	Files       []string `json:"files" yaml:"files"`
}

type duplicatesView struct {
	Groups               []groupView `json:"groups" yaml:"groups"`
	FilesHashed          int         `json:"files_hashed" yaml:"files_hashed"`
	WastedBytes          uint64      `json:"wasted_bytes" yaml:"wasted_bytes"`
	WastedBytesFormatted string      `json:"wasted_bytes_formatted" yaml:"wasted_bytes_formatted"`
	Skipped              []skipView  `json:"skipped" yaml:"skipped"`
}

func newDuplicatesView(result *scanner.DuplicateResult) duplicatesView {
	groups := make([]groupView, 0, len(result.Groups))
	for _, g := range result.Groups {
		paths := make([]string, 0, len(g.Files))
		for _, f := range g.Files {
			paths = append(paths, f.Path)
		}
		groups = append(groups, groupView{Size: g.Size, Hash: g.Hash, WastedBytes: g.WastedBytes(), Files: paths})
	}
	return duplicatesView{
		Groups:               groups,
		FilesHashed:          result.FilesHashed,
		WastedBytes:          result.WastedBytes(),
		WastedBytesFormatted: utils.FormatBytes(result.WastedBytes()),
		Skipped:              skipViews(result.Skipped),
	}
}

type categoryView struct {
	Category  string   `json:"category" yaml:"category"`
	Count     int      `json:"count" yaml:"count"`
	TotalSize uint64   `json:"total_size" yaml:"total_size"`
	Files     []string `json:"files" yaml:"files"`
}

type identificationView struct {
	Categories []categoryView `json:"categories" yaml:"categories"`
	Skipped    []skipView     `json:"skipped" yaml:"skipped"`
}

// newIdentificationView lists non-empty categories in display order
func newIdentificationView(id *classifier.Identification) identificationView {
	var cats []categoryView
	for _, cat := range classifier.Categories {
		files := id.ByCategory[cat]
		if len(files) == 0 {
			continue
		}
		v := categoryView{Category: string(cat), Count: len(files), Files: make([]string, 0, len(files))}
		for _, f := range files {
			v.TotalSize += f.Size
			v.Files = append(v.Files, f.Path)
		}
		cats = append(cats, v)
	}
	if cats == nil {
		cats = []categoryView{}
	}
	return identificationView{Categories: cats, Skipped: skipViews(id.Skipped)}
}

type mismatchView struct {
	Path         string `json:"path" yaml:"path"`
	Extension    string `json:"extension" yaml:"extension"`
	DetectedMIME string `json:"detected_mime" yaml:"detected_mime"`
}

type mismatchesView struct {
	Count int            `json:"count" yaml:"count"`
	Files []mismatchView `json:"files" yaml:"files"`
}

func newMismatchesView(mismatches []classifier.Mismatch) mismatchesView {
	files := make([]mismatchView, 0, len(mismatches))
	for _, m := range mismatches {
		files = append(files, mismatchView{Path: m.File.Path, Extension: m.File.Extension, DetectedMIME: m.MIME})
	}
	return mismatchesView{Count: len(files), Files: files}
}

type diskView struct {
	DeviceName string            `json:"device_name" yaml:"device_name"`
	Model      string            `json:"model" yaml:"model"`
	Serial     string            `json:"serial" yaml:"serial"`
	Kind       string            `json:"kind" yaml:"kind"`
	KindCode   int               `json:"kind_code" yaml:"kind_code"`
	Size       uint64            `json:"size" yaml:"size"`
	Removable  bool              `json:"removable" yaml:"removable"`
	Partitions []disks.Partition `json:"partitions" yaml:"partitions"`
}

type diskSkipView struct {
	Device    string `json:"device" yaml:"device"`
	Partition string `json:"partition,omitempty" yaml:"partition,omitempty"`
	Error     string `json:"error" yaml:"error"`
}

type disksView struct {
	Disks   []diskView     `json:"disks" yaml:"disks"`
	Skipped []diskSkipView `json:"skipped" yaml:"skipped"`
}

func newDisksView(inv *disks.Inventory) disksView {
	view := disksView{
		Disks:   make([]diskView, 0, len(inv.Disks)),
		Skipped: make([]diskSkipView, 0, len(inv.Skipped)),
	}
	for _, d := range inv.Disks {
		parts := d.Partitions
		if parts == nil {
			parts = []disks.Partition{}
		}
		view.Disks = append(view.Disks, diskView{
			DeviceName: d.DeviceName,
			Model:      d.Model,
			Serial:     d.Serial,
			Kind:       d.Kind.String(),
			KindCode:   int(d.Kind),
			Size:       d.Size,
			Removable:  d.Removable,
			Partitions: parts,
		})
	}
	for _, s := range inv.Skipped {
		v := diskSkipView{Device: s.Device, Partition: s.Partition}
		if s.Err != nil {
			v.Error = s.Err.Error()
		}
		view.Skipped = append(view.Skipped, v)
	}
	return view
}
