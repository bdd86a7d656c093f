package disks

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	// StorageNamespace holds the MSFT_PhysicalDisk class
	StorageNamespace = `ROOT\Microsoft\Windows\Storage`
	// SystemNamespace holds the Win32_* classes
	SystemNamespace = `ROOT\CIMV2`

	diskDriveQuery       = "SELECT * FROM Win32_DiskDrive"
	removableCapability  = "Supports Removable Media"
	driveToPartition     = "Win32_DiskDriveToDiskPartition"
	partitionToLogical   = "Win32_LogicalDiskToPartition"
	diskDriveClass       = "Win32_DiskDrive"
	diskPartitionClass   = "Win32_DiskPartition"
	physicalDriveSegment = "PHYSICALDRIVE"
)

// Querier runs disk queries against a platform backend
type Querier interface {
	// Query runs a typed query and returns every result row
	Query(query string) ([]Record, error)
	// Associators returns the rows related to the instance class.id through assocClass
	Associators(class, id, assocClass string) ([]Record, error)
}

// QueryError is returned when the top-level disk enumeration fails.
// Failures for a single disk or partition are reported as Skip entries instead.
type QueryError struct {
	Query string
	Err   error
}

// Error implements the error interface
func (e *QueryError) Error() string {
	return fmt.Sprintf("disk query %q failed: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Skip records a disk or partition left out of an inventory
type Skip struct {
	Device    string `json:"device" yaml:"device"`
	Partition string `json:"partition,omitempty" yaml:"partition,omitempty"`
	Err       error  `json:"-" yaml:"-"`
}

// Error implements the error interface
func (s Skip) Error() string {
	if s.Partition != "" {
		return fmt.Sprintf("%s: partition %s: %v", s.Device, s.Partition, s.Err)
	}
	return fmt.Sprintf("%s: %v", s.Device, s.Err)
}

// Inventory is the result of one disk enumeration
type Inventory struct {
	Disks   []Disk
	Skipped []Skip
}

// PartitionCount returns the number of partitions across all disks
func (inv *Inventory) PartitionCount() int {
	n := 0
	for _, d := range inv.Disks {
		n += len(d.Partitions)
	}
	return n
}

// sequence hands out partition ids for one inventory call
type sequence struct {
	next uint64
}

func (s *sequence) take() uint64 {
	id := s.next
	s.next++
	return id
}

// ExtractDiskNumber parses the drive index from a device id such as
// `\\.\PHYSICALDRIVE2`. Ids without a numeric suffix yield 0.
func ExtractDiskNumber(deviceID string) uint32 {
	last := deviceID
	if i := strings.LastIndex(deviceID, `\`); i >= 0 {
		last = deviceID[i+1:]
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(last, physicalDriveSegment), 10, 32)
	if err != nil {
		return 0
	}
	return uint32(n)
}

// Mapper turns disk query rows into typed disks
type Mapper struct {
	system  Querier
	storage Querier
	logger  *zap.Logger
}

// NewMapper creates a Mapper. system answers Win32_* queries and storage
// answers MSFT_PhysicalDisk lookups.
func NewMapper(system, storage Querier, logger *zap.Logger) *Mapper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mapper{system: system, storage: storage, logger: logger}
}

// Inventory enumerates every physical disk. Only a failure of the initial
// drive enumeration is returned as an error; disks or partitions that cannot
// be mapped are recorded in Inventory.Skipped.
func (m *Mapper) Inventory() (*Inventory, error) {
	drives, err := m.system.Query(diskDriveQuery)
	if err != nil {
		return nil, &QueryError{Query: diskDriveQuery, Err: err}
	}

	inv := &Inventory{Disks: make([]Disk, 0, len(drives))}
	seq := &sequence{}

	for _, drive := range drives {
		disk, err := m.mapDisk(drive, seq, inv)
		if err != nil {
			device, _ := drive.String("DeviceID")
			m.logger.Warn("Skipping disk", zap.String("device", device), zap.Error(err))
			inv.Skipped = append(inv.Skipped, Skip{Device: device, Err: err})
			continue
		}
		inv.Disks = append(inv.Disks, disk)
	}

	m.logger.Debug("Disk inventory complete",
		zap.Int("disks", len(inv.Disks)),
		zap.Int("partitions", inv.PartitionCount()),
		zap.Int("skipped", len(inv.Skipped)))

	return inv, nil
}

func (m *Mapper) mapDisk(drive Record, seq *sequence, inv *Inventory) (Disk, error) {
	info := drive.clone()

	if deviceID, ok := info.String("DeviceID"); ok {
		if err := m.enrich(info, deviceID); err != nil {
			return Disk{}, err
		}
	}

	caption, err := info.requireString("Caption")
	if err != nil {
		return Disk{}, err
	}
	model, err := info.requireString("Model")
	if err != nil {
		return Disk{}, err
	}
	serial, err := info.requireString("SerialNumber")
	if err != nil {
		return Disk{}, err
	}
	size, err := info.requireUint64("Size")
	if err != nil {
		return Disk{}, err
	}
	removable, err := info.requireBool("Removable")
	if err != nil {
		return Disk{}, err
	}
	deviceID, err := info.requireString("DeviceID")
	if err != nil {
		return Disk{}, err
	}
	code, hasCode := info.Uint16("Kind")

	partitions, err := m.partitions(deviceID, seq, inv)
	if err != nil {
		return Disk{}, err
	}

	return Disk{
		DeviceName: strings.Join(strings.Fields(caption), " "),
		Model:      model,
		Serial:     serial,
		Kind:       kindFromCode(code, hasCode),
		Size:       size,
		Removable:  removable,
		Partitions: partitions,
	}, nil
}

// enrich overlays the storage-namespace details of a drive onto info
func (m *Mapper) enrich(info Record, deviceID string) error {
	query := fmt.Sprintf("SELECT * FROM MSFT_PhysicalDisk WHERE DeviceId = '%d'", ExtractDiskNumber(deviceID))
	rows, err := m.storage.Query(query)
	if err != nil {
		return &QueryError{Query: query, Err: err}
	}

	if len(rows) > 0 {
		detail := rows[0]
		if model, ok := detail.String("Model"); ok {
			info["Model"] = model
		}
		if fru, ok := detail.String("FruId"); ok {
			info["SerialNumber"] = fru
		}
		if media, ok := detail.Uint16("MediaType"); ok {
			info["Kind"] = media
		}
	}

	if caps, ok := info.Array("CapabilityDescriptions"); ok {
		info["Removable"] = containsString(caps, removableCapability)
	}

	return nil
}

func (m *Mapper) partitions(deviceID string, seq *sequence, inv *Inventory) ([]Partition, error) {
	rows, err := m.system.Associators(diskDriveClass, deviceID, driveToPartition)
	if err != nil {
		return nil, &QueryError{Query: fmt.Sprintf("associators of %s.DeviceID=%q", diskDriveClass, deviceID), Err: err}
	}

	partitions := make([]Partition, 0, len(rows))
	for _, row := range rows {
		partitionID, _ := row.String("DeviceID")
		p, err := m.mapPartition(row, seq)
		if err != nil {
			m.logger.Debug("Skipping partition",
				zap.String("device", deviceID),
				zap.String("partition", partitionID),
				zap.Error(err))
			inv.Skipped = append(inv.Skipped, Skip{Device: deviceID, Partition: partitionID, Err: err})
			continue
		}
		partitions = append(partitions, p)
	}

	return partitions, nil
}

// mapPartition resolves the logical disk of a partition row. An id is taken
// from seq only once every field has been read.
func (m *Mapper) mapPartition(row Record, seq *sequence) (Partition, error) {
	partitionID, err := row.requireString("DeviceID")
	if err != nil {
		return Partition{}, err
	}

	logical, err := m.system.Associators(diskPartitionClass, partitionID, partitionToLogical)
	if err != nil {
		return Partition{}, &QueryError{Query: fmt.Sprintf("associators of %s.DeviceID=%q", diskPartitionClass, partitionID), Err: err}
	}
	if len(logical) == 0 {
		return Partition{}, fmt.Errorf("no logical disk for partition %s", partitionID)
	}
	ld := logical[0]

	name, err := ld.requireString("Name")
	if err != nil {
		return Partition{}, err
	}
	fsName, err := ld.requireString("FileSystem")
	if err != nil {
		return Partition{}, err
	}
	mount, err := ld.requireString("DeviceID")
	if err != nil {
		return Partition{}, err
	}
	total, err := ld.requireUint64("Size")
	if err != nil {
		return Partition{}, err
	}
	free, err := ld.requireUint64("FreeSpace")
	if err != nil {
		return Partition{}, err
	}

	return Partition{
		ID:             seq.take(),
		Name:           name,
		FileSystem:     createFileSystem(fsName, mount+`\`),
		TotalSpace:     total,
		AvailableSpace: free,
	}, nil
}

func containsString(values []any, want string) bool {
	for _, v := range values {
		if s, ok := v.(string); ok && s == want {
			return true
		}
	}
	return false
}

// NewWMIMapper creates a Mapper backed by WMI in the given namespaces.
// Empty namespaces fall back to SystemNamespace and StorageNamespace.
func NewWMIMapper(systemNamespace, storageNamespace string, logger *zap.Logger) (*Mapper, error) {
	if systemNamespace == "" {
		systemNamespace = SystemNamespace
	}
	if storageNamespace == "" {
		storageNamespace = StorageNamespace
	}

	system, err := NewWMIQuerier(systemNamespace)
	if err != nil {
		return nil, err
	}
	storage, err := NewWMIQuerier(storageNamespace)
	if err != nil {
		return nil, err
	}
	return NewMapper(system, storage, logger), nil
}
