package clientpackets

import (
	"fmt"

	"github.com/avalon-core/worldnode/internal/buffer"
)

// UpdateAccountData is a client-side account-data upload. The compressed
// payload trailing the fixed fields is ignored; this node stores no
// account data, it only acknowledges the upload.
type UpdateAccountData struct {
	DataType         uint32
	Timestamp        uint32
	DecompressedSize uint32
}

// ParseUpdateAccountData parses an UPDATE_ACCOUNT_DATA body.
func ParseUpdateAccountData(data []byte) (*UpdateAccountData, error) {
	b := buffer.NewFromBytes(data)

	dataType, err := b.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("reading data type: %w", err)
	}
	timestamp, err := b.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("reading timestamp: %w", err)
	}
	size, err := b.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("reading decompressed size: %w", err)
	}

	return &UpdateAccountData{
		DataType:         dataType,
		Timestamp:        timestamp,
		DecompressedSize: size,
	}, nil
}
