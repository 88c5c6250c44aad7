// Package persist reads and writes fitted models as single binary
// artifacts.
//
// Layout:
//
//	magic    [4]byte  "TXCM"
//	version  uint16   big endian
//	checksum uint64   HighwayHash-64 of the compressed payload, big endian
//	payload  []byte   snappy-compressed gob of the schema and steps
package persist

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/golang/snappy"
	"github.com/minio/highwayhash"

	"github.com/Veraticus/textclass/internal/common"
	"github.com/Veraticus/textclass/internal/data"
	"github.com/Veraticus/textclass/internal/pipeline"
)

// Version is the artifact format version written by Save.
const Version uint16 = 1

const headerSize = 4 + 2 + 8

var magic = [4]byte{'T', 'X', 'C', 'M'}

// checksumKey keys the payload checksum. It detects corruption, it does
// not authenticate.
var checksumKey = []byte("textclass model artifact v1 key!")

type artifact struct {
	Schema data.Schema
	Steps  []pipeline.Transformer
}

// Encode writes the model and the input schema it was trained on to w.
func Encode(w io.Writer, model *pipeline.Model, schema data.Schema) error {
	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(artifact{Schema: schema, Steps: model.Steps()}); err != nil {
		return fmt.Errorf("%w: failed to encode model: %w", common.ErrFormat, err)
	}
	compressed := snappy.Encode(nil, payload.Bytes())

	sum, err := checksum(compressed)
	if err != nil {
		return err
	}

	header := make([]byte, headerSize)
	copy(header, magic[:])
	binary.BigEndian.PutUint16(header[4:], Version)
	binary.BigEndian.PutUint64(header[6:], sum)

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("%w: %w", common.ErrIO, err)
	}
	if _, err := w.Write(compressed); err != nil {
		return fmt.Errorf("%w: %w", common.ErrIO, err)
	}
	return nil
}

// Decode reads an artifact written by Encode.
func Decode(r io.Reader) (*pipeline.Model, data.Schema, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, data.Schema{}, fmt.Errorf("%w: %w", common.ErrIO, err)
	}
	if len(raw) < headerSize {
		return nil, data.Schema{}, fmt.Errorf("%w: artifact is %d bytes, shorter than its header", common.ErrFormat, len(raw))
	}
	if !bytes.Equal(raw[:4], magic[:]) {
		return nil, data.Schema{}, fmt.Errorf("%w: not a model artifact", common.ErrFormat)
	}
	if v := binary.BigEndian.Uint16(raw[4:]); v != Version {
		return nil, data.Schema{}, fmt.Errorf("%w: unsupported artifact version %d", common.ErrFormat, v)
	}

	compressed := raw[headerSize:]
	sum, err := checksum(compressed)
	if err != nil {
		return nil, data.Schema{}, err
	}
	if sum != binary.BigEndian.Uint64(raw[6:]) {
		return nil, data.Schema{}, fmt.Errorf("%w: checksum mismatch", common.ErrFormat)
	}

	payload, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, data.Schema{}, fmt.Errorf("%w: failed to decompress model: %w", common.ErrFormat, err)
	}

	var a artifact
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&a); err != nil {
		return nil, data.Schema{}, fmt.Errorf("%w: failed to decode model: %w", common.ErrFormat, err)
	}
	return pipeline.NewModel(a.Steps...), a.Schema, nil
}

func checksum(b []byte) (uint64, error) {
	h, err := highwayhash.New64(checksumKey)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrFormat, err)
	}
	_, _ = h.Write(b)
	return h.Sum64(), nil
}

// Save writes the artifact to path atomically. Parent directories are
// created as needed and an existing file is replaced only on success.
func Save(model *pipeline.Model, schema data.Schema, path string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("%w: failed to create model directory: %w", common.ErrIO, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: failed to create temporary file: %w", common.ErrIO, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := Encode(tmp, model, schema); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrIO, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: failed to move model into place: %w", common.ErrIO, err)
	}

	if info, statErr := os.Stat(path); statErr == nil {
		slog.Info("Saved model", "path", path, "size", humanize.Bytes(uint64(info.Size())))
	}
	return nil
}

// Load reads an artifact written by Save.
func Load(path string) (*pipeline.Model, data.Schema, error) {
	f, err := os.Open(path) //nolint:gosec // model path comes from the user
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, data.Schema{}, fmt.Errorf("%w: model %s does not exist", common.ErrIO, path)
		}
		return nil, data.Schema{}, fmt.Errorf("%w: %w", common.ErrIO, err)
	}
	defer func() { _ = f.Close() }()

	model, schema, err := Decode(f)
	if err != nil {
		return nil, data.Schema{}, fmt.Errorf("load %s: %w", path, err)
	}
	slog.Debug("Loaded model", "path", path, "steps", len(model.Steps()))
	return model, schema, nil
}
