package statestore

import (
	"context"
	"errors"

	"github.com/fxamacker/cbor/v2"
)

var (
	// ErrSaveState is returned when persisting a state blob fails.
	ErrSaveState = errors.New("failed to save broker state")
	// ErrDeleteState is returned when removing a state blob fails.
	ErrDeleteState = errors.New("failed to delete broker state")
)

// Store persists per-broker cookie state addressed by the broker URL.
// Implementations must treat missing or corrupt blobs as absent: Load
// returns (nil, nil) for them. Saving an empty or nil cookie map is
// equivalent to Delete.
type Store interface {
	Load(ctx context.Context, brokerURL string) (map[string]string, error)
	Save(ctx context.Context, brokerURL string, cookies map[string]string) error
	Delete(ctx context.Context, brokerURL string) error
}

// blobVersion is bumped on incompatible envelope changes. Decoders reject
// any other version and treat the blob as absent.
const blobVersion = 1

// envelope is the on-disk/on-wire representation of a cookie blob.
type envelope struct {
	Version int               `cbor:"v"`
	Cookies map[string]string `cbor:"cookies"`
}

func encodeBlob(cookies map[string]string) ([]byte, error) {
	return cbor.Marshal(envelope{Version: blobVersion, Cookies: cookies})
}

// decodeBlob returns the cookie map held in data, or nil if data is not
// a valid current-version envelope.
func decodeBlob(data []byte) map[string]string {
	var env envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return nil
	}
	if env.Version != blobVersion {
		return nil
	}
	return env.Cookies
}
