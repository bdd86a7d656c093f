package disks

import (
	"fmt"
	"strings"

	"github.com/fenilsonani/diskscout/pkg/utils"
)

// Kind is the media type code reported for a physical disk
type Kind int

const (
	KindUnknown Kind = -1
	KindHDD     Kind = 3
	KindSSD     Kind = 4
	KindSCM     Kind = 5
)

// kindFromCode maps a media type code to a Kind
func kindFromCode(code uint16, present bool) Kind {
	if !present {
		return KindUnknown
	}
	return Kind(code)
}

// IsKnown reports whether k is one of HDD, SSD or SCM
func (k Kind) IsKnown() bool {
	return k == KindHDD || k == KindSSD || k == KindSCM
}

func (k Kind) String() string {
	switch k {
	case KindHDD:
		return "HDD"
	case KindSSD:
		return "SSD"
	case KindSCM:
		return "SCM"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// FSType names a file system variant
type FSType string

const (
	FSBTRFS          FSType = "BTRFS"
	FSEXT4           FSType = "EXT4"
	FSNTFS           FSType = "NTFS"
	FSFAT32          FSType = "FAT32"
	FSEXFAT          FSType = "EXFAT"
	FSXFS            FSType = "XFS"
	FSZFS            FSType = "ZFS"
	FSNotImplemented FSType = "NotImplemented"
	FSUnknown        FSType = "Unknown"
)

// FileSystem is the file system found on a partition.
// BTRFS may carry several mount paths and Unknown carries none; every other
// type has exactly one. RawType holds the reported name for NotImplemented.
type FileSystem struct {
	Type       FSType   `json:"type" yaml:"type"`
	MountPaths []string `json:"mount_paths,omitempty" yaml:"mount_paths,omitempty"`
	RawType    string   `json:"raw_type,omitempty" yaml:"raw_type,omitempty"`
}

// MountPath returns the first mount path, or "" when there is none
func (f FileSystem) MountPath() string {
	if len(f.MountPaths) == 0 {
		return ""
	}
	return f.MountPaths[0]
}

func (f FileSystem) String() string {
	name := string(f.Type)
	if f.Type == FSNotImplemented {
		name = fmt.Sprintf("%s (not implemented)", f.RawType)
	}
	if len(f.MountPaths) == 0 {
		return name
	}
	return fmt.Sprintf("%s at %s", name, strings.Join(f.MountPaths, ", "))
}

// createFileSystem maps a reported file system name to its variant.
// Only the exact spellings NTFS, FAT32 and exFAT are recognised.
func createFileSystem(raw, mountPath string) FileSystem {
	paths := []string{mountPath}
	switch raw {
	case "NTFS":
		return FileSystem{Type: FSNTFS, MountPaths: paths}
	case "FAT32":
		return FileSystem{Type: FSFAT32, MountPaths: paths}
	case "exFAT":
		return FileSystem{Type: FSEXFAT, MountPaths: paths}
	default:
		return FileSystem{Type: FSNotImplemented, MountPaths: paths, RawType: raw}
	}
}

// Partition is one mounted volume on a disk
type Partition struct {
	ID             uint64     `json:"id" yaml:"id"`
	Name           string     `json:"name" yaml:"name"`
	FileSystem     FileSystem `json:"file_system" yaml:"file_system"`
	TotalSpace     uint64     `json:"total_space" yaml:"total_space"`
	AvailableSpace uint64     `json:"available_space" yaml:"available_space"`
}

// UsedSpace returns the occupied bytes of the partition
func (p Partition) UsedSpace() uint64 {
	if p.AvailableSpace > p.TotalSpace {
		return 0
	}
	return p.TotalSpace - p.AvailableSpace
}

func (p Partition) String() string {
	return fmt.Sprintf("Partition %d: %s\nFile system: %s\nCapacity: %s\nAvailable: %s",
		p.ID, p.Name, p.FileSystem,
		utils.FormatBinary(p.TotalSpace), utils.FormatBinary(p.AvailableSpace))
}

// Disk is a physical storage device and its partitions
type Disk struct {
	DeviceName string      `json:"device_name" yaml:"device_name"`
	Model      string      `json:"model" yaml:"model"`
	Serial     string      `json:"serial" yaml:"serial"`
	Kind       Kind        `json:"kind" yaml:"kind"`
	Size       uint64      `json:"size" yaml:"size"`
	Removable  bool        `json:"removable" yaml:"removable"`
	Partitions []Partition `json:"partitions" yaml:"partitions"`
}

// AllocatedSpace returns the bytes covered by partitions
func (d Disk) AllocatedSpace() uint64 {
	var total uint64
	for _, p := range d.Partitions {
		total += p.TotalSpace
	}
	return total
}

// UnallocatedSpace returns the bytes not covered by any partition
func (d Disk) UnallocatedSpace() uint64 {
	allocated := d.AllocatedSpace()
	if allocated >= d.Size {
		return 0
	}
	return d.Size - allocated
}

// String renders a multi-line summary of the disk and its partitions
func (d Disk) String() string {
	var b strings.Builder

	kind := d.Kind.String()
	if !d.Kind.IsKnown() {
		kind = fmt.Sprintf("Unknown Disk Type (%d)", int(d.Kind))
	}
	if d.Removable {
		kind += " (Removable)"
	}
	serial := d.Serial
	if serial == "" {
		serial = "N/A"
	}

	fmt.Fprintf(&b, "%s\n  Device: %s\n  Type: %s\n  Capacity: %s\n  Serial: %s\n  Partitions: %d",
		d.Model, d.DeviceName, kind, utils.FormatBinary(d.Size), serial, len(d.Partitions))

	if len(d.Partitions) == 0 {
		return b.String()
	}

	b.WriteString("\n\nPartition Details:\n")
	for i, p := range d.Partitions {
		if i > 0 {
			fmt.Fprintf(&b, "\n  %s\n", strings.Repeat("-", 50))
		}
		for j, line := range strings.Split(p.String(), "\n") {
			if j == 0 {
				b.WriteString("  " + line)
			} else {
				b.WriteString("\n    " + line)
			}
		}
		b.WriteString("\n")
	}

	// Small gaps are alignment slack, not free space
	if unallocated := d.UnallocatedSpace(); unallocated > 1024 {
		fmt.Fprintf(&b, "\n  Unallocated space: %s\n", utils.FormatBinary(unallocated))
	}

	return b.String()
}
