package state

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// Version is the current snapshot format version. Readers refuse files
// written by a newer version.
const Version = 1

// ErrMalformedHeader means the stream does not start with a snapshot
// header line.
var ErrMalformedHeader = errors.New("state: malformed header")

// ErrChecksumMismatch means the body bytes do not hash to the checksum in
// the header. Read still returns the decoded snapshot so the caller can
// warn and decide whether to use it.
var ErrChecksumMismatch = errors.New("state: checksum mismatch")

// Write serializes the snapshot as a YAML document preceded by a header
// line carrying the format version and a BLAKE3 checksum of the exact
// body bytes.
func Write(w io.Writer, s *Snapshot) error {
	body, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("state: encode: %w", err)
	}

	sum := blake3.Sum256(body)
	if _, err := fmt.Fprintf(w, "# plughost-state v%d blake3=%s\n", Version, hex.EncodeToString(sum[:])); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

// Read decodes a snapshot written by Write. The checksum guards the body
// bytes as stored, so a later re-encode is free to differ. A version
// newer than Version is refused; unknown keys in the body are ignored.
func Read(r io.Reader) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	nl := bytes.IndexByte(data, '\n')
	if nl < 0 {
		return nil, ErrMalformedHeader
	}
	line := strings.TrimRight(string(data[:nl]), "\r")
	body := data[nl+1:]

	var version uint32
	var sumHex string
	if _, err := fmt.Sscanf(line, "# plughost-state v%d blake3=%s", &version, &sumHex); err != nil {
		return nil, ErrMalformedHeader
	}
	if version > Version {
		return nil, fmt.Errorf("state: version %d is newer than supported version %d", version, Version)
	}

	s := NewSnapshot()
	if err := yaml.Unmarshal(body, s); err != nil {
		return nil, fmt.Errorf("state: decode: %w", err)
	}

	want, err := hex.DecodeString(sumHex)
	sum := blake3.Sum256(body)
	if err != nil || !bytes.Equal(want, sum[:]) {
		return s, ErrChecksumMismatch
	}
	return s, nil
}
