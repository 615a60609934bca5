package generate

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
)

// Digest returns the hex-encoded SHA-256 digest of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DigestFile returns the content digest of the file at path.
func DigestFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	return Digest(data), nil
}

// Detector decides whether a watched file's content has changed since the
// last observation. Detection is digest-based rather than mtime-based, so a
// touch without a write never triggers and coarse filesystem timestamps
// never suppress a real change. A Detector is owned by a single watch
// instance and is not safe for concurrent use.
type Detector struct {
	digests map[string]string
}

// NewDetector creates an empty detector.
func NewDetector() *Detector {
	return &Detector{digests: make(map[string]string)}
}

// Changed reads path, compares its digest with the last known one, and
// updates the cache. A read failure (e.g. the file is momentarily absent
// during an atomic replace by another process) reports no change together
// with the error; the caller retries on the next tick.
func (d *Detector) Changed(path string) (bool, error) {
	digest, err := DigestFile(path)
	if err != nil {
		return false, err
	}

	if last, ok := d.digests[path]; ok && last == digest {
		return false, nil
	}

	d.digests[path] = digest

	return true, nil
}

// Prime records digest as the last known content of path, suppressing the
// next Changed call for identical content. Used after a generation so the
// run that produced the output does not immediately re-trigger.
func (d *Detector) Prime(path, digest string) {
	if digest != "" {
		d.digests[path] = digest
	}
}
