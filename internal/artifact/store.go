package artifact

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ojcast/ojcast/internal/compression"
	"github.com/ojcast/ojcast/internal/logging"
)

// =============================================================================
// Artifact Store
// =============================================================================
//
// Artifacts are addressed by (example, file) under a root directory:
// root/<example>/<file>. Each file is a fixed 8-byte header followed by
// a compressed JSON archive:
//
//	[magic 4B] [format version 1B] [compression algorithm 1B] [reserved 2B]
//
// The algorithm lives in the header so readers never need out-of-band
// knowledge of how an artifact was written.
// =============================================================================

const (
	archiveMagic   uint32 = 0x4F4A4131 // "OJA1"
	archiveVersion uint8  = 1
	headerSize            = 8
)

var (
	// ErrNotFound means the artifact file does not exist.
	ErrNotFound = errors.New("artifact not found")

	// ErrObjectNotFound means a requested object name is absent from the archive.
	ErrObjectNotFound = errors.New("object not found in artifact")
)

// archive is the on-disk JSON payload. Objects stay raw so the store can
// round-trip values whose concrete types it does not know.
type archive struct {
	Version   int                        `json:"version"`
	ID        string                     `json:"id"`
	CreatedAt time.Time                  `json:"created_at"`
	Objects   map[string]json.RawMessage `json:"objects"`
}

// Store reads and writes artifacts under a root directory.
type Store struct {
	root       string
	compressor compression.Compressor
	logger     *logging.Logger
}

// NewStore creates a store rooted at dir. The compressor is used for
// writes; reads pick their codec from the artifact header.
func NewStore(root string, compressor compression.Compressor) *Store {
	if compressor == nil {
		compressor = &compression.NoneCompressor{}
	}
	return &Store{
		root:       root,
		compressor: compressor,
		logger:     logging.Global(),
	}
}

// Path returns the location an artifact is stored at.
func (s *Store) Path(example, file string) string {
	return filepath.Join(s.root, example, file)
}

// Exists reports whether an artifact is present on disk.
func (s *Store) Exists(example, file string) bool {
	_, err := os.Stat(s.Path(example, file))
	return err == nil
}

// Save writes the named objects as one artifact. Data goes to a .tmp
// file first and the rename happens only after a successful fsync, so a
// crash never leaves a partial artifact at the final path. An existing
// artifact is replaced.
func (s *Store) Save(example, file string, objects map[string]any) error {
	arch := archive{
		Version:   int(archiveVersion),
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Objects:   make(map[string]json.RawMessage, len(objects)),
	}
	for name, obj := range objects {
		raw, err := json.Marshal(obj)
		if err != nil {
			return fmt.Errorf("failed to marshal object %q: %w", name, err)
		}
		arch.Objects[name] = raw
	}

	payload, err := json.Marshal(&arch)
	if err != nil {
		return fmt.Errorf("failed to marshal archive: %w", err)
	}
	compressed, err := s.compressor.Compress(payload)
	if err != nil {
		return fmt.Errorf("failed to compress archive: %w", err)
	}

	buf := make([]byte, headerSize, headerSize+len(compressed))
	binary.LittleEndian.PutUint32(buf[0:], archiveMagic)
	buf[4] = archiveVersion
	buf[5] = uint8(s.compressor.Algorithm())
	buf = append(buf, compressed...)

	dir := filepath.Join(s.root, example)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	finalPath := filepath.Join(dir, file)
	tmpPath := finalPath + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create artifact file: %w", err)
	}
	if _, err := f.Write(buf); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename artifact: %w", err)
	}

	s.logger.Info("Artifact saved",
		"path", finalPath,
		"objects", len(arch.Objects),
		"bytes", len(buf),
		"compression", s.compressor.Algorithm().String())
	return nil
}

// Load reads an artifact and decodes the requested objects. The into map
// holds object name -> destination pointer. Archive objects that were not
// requested are ignored; a requested name missing from the archive fails
// with ErrObjectNotFound.
func (s *Store) Load(example, file string, into map[string]any) error {
	path := s.Path(example, file)
	arch, err := s.readArchive(path)
	if err != nil {
		return err
	}

	for name, dst := range into {
		raw, ok := arch.Objects[name]
		if !ok {
			return fmt.Errorf("%w: %q in %s", ErrObjectNotFound, name, path)
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("failed to decode object %q: %w", name, err)
		}
	}

	s.logger.Debug("Artifact loaded",
		"path", path,
		"objects", len(into),
		"artifact_id", arch.ID)
	return nil
}

// Objects returns the sorted object names stored in an artifact.
func (s *Store) Objects(example, file string) ([]string, error) {
	arch, err := s.readArchive(s.Path(example, file))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(arch.Objects))
	for name := range arch.Objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) readArchive(path string) (*archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	if len(data) < headerSize {
		return nil, fmt.Errorf("artifact %s truncated: %d bytes", path, len(data))
	}
	if magic := binary.LittleEndian.Uint32(data[0:]); magic != archiveMagic {
		return nil, fmt.Errorf("artifact %s has bad magic 0x%08X", path, magic)
	}
	if v := data[4]; v != archiveVersion {
		return nil, fmt.Errorf("artifact %s has unsupported format version %d", path, v)
	}
	comp, err := compression.GetCompressor(compression.Algorithm(data[5]))
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}

	payload, err := comp.Decompress(data[headerSize:])
	if err != nil {
		return nil, fmt.Errorf("failed to decompress artifact %s: %w", path, err)
	}

	var arch archive
	if err := json.Unmarshal(payload, &arch); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifact %s: %w", path, err)
	}
	return &arch, nil
}
