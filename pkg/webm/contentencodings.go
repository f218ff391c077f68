package webm

import "fmt"

const (
	contentEncodingTypeCompression uint64 = 0
	contentEncodingTypeEncryption  uint64 = 1

	contentEncAlgoAES128CTR uint64 = 5
)

// ContentEncoding is one decoded ContentEncoding entry.
type ContentEncoding struct {
	Order     uint64
	Scope     uint64
	Type      uint64
	EncAlgo   uint64
	KeyID     []byte
	Encrypted bool
}

// contentEncodingsClient decodes the ContentEncodings master element.
type contentEncodingsClient struct {
	Encodings []ContentEncoding
	current   *contentEncodingClient
}

func newContentEncodingsClient() *contentEncodingsClient { return &contentEncodingsClient{} }

func (c *contentEncodingsClient) OnListStart(id uint32) (Client, bool) {
	if id != idContentEncoding {
		return nil, false
	}
	c.current = &contentEncodingClient{}
	return c.current, true
}

func (c *contentEncodingsClient) OnListEnd(id uint32) bool {
	if id != idContentEncoding {
		return false
	}
	ce := c.current
	c.current = nil
	enc, err := ce.finish()
	if err != nil {
		return false
	}
	c.Encodings = append(c.Encodings, *enc)
	return true
}

func (c *contentEncodingsClient) OnUInt(id uint32, val uint64) bool   { return false }
func (c *contentEncodingsClient) OnFloat(id uint32, val float64) bool  { return false }
func (c *contentEncodingsClient) OnString(id uint32, val string) bool  { return false }
func (c *contentEncodingsClient) OnBinary(id uint32, data []byte) bool { return false }

// contentEncodingClient decodes one ContentEncoding entry, including its
// nested ContentEncryption master.
type contentEncodingClient struct {
	order, scope, typ *uint64
	encryption        *contentEncryptionClient
}

func (ce *contentEncodingClient) OnListStart(id uint32) (Client, bool) {
	if id != idContentEncryption {
		return nil, false
	}
	ce.encryption = &contentEncryptionClient{}
	return ce.encryption, true
}

func (ce *contentEncodingClient) OnListEnd(id uint32) bool {
	return id == idContentEncryption
}

func (ce *contentEncodingClient) OnUInt(id uint32, val uint64) bool {
	switch id {
	case idContentEncodingOrder:
		ce.order = &val
		return true
	case idContentEncodingScope:
		ce.scope = &val
		return true
	case idContentEncodingType:
		ce.typ = &val
		return true
	}
	return false
}

func (ce *contentEncodingClient) OnFloat(id uint32, val float64) bool  { return false }
func (ce *contentEncodingClient) OnString(id uint32, val string) bool  { return false }
func (ce *contentEncodingClient) OnBinary(id uint32, data []byte) bool { return false }

func (ce *contentEncodingClient) finish() (*ContentEncoding, error) {
	enc := &ContentEncoding{}
	if ce.order != nil {
		enc.Order = *ce.order
	}
	if ce.scope != nil {
		enc.Scope = *ce.scope
	}
	if ce.typ != nil {
		enc.Type = *ce.typ
	}
	switch enc.Type {
	case contentEncodingTypeCompression:
		// Not produced by this packager's canonical instance; accepted
		// and left inert rather than rejected outright.
	case contentEncodingTypeEncryption:
		if ce.encryption == nil {
			return nil, fmt.Errorf("webm: ContentEncoding declares type=encryption but has no ContentEncryption element")
		}
		if ce.encryption.algo != nil {
			enc.EncAlgo = *ce.encryption.algo
		}
		if enc.EncAlgo != contentEncAlgoAES128CTR {
			return nil, fmt.Errorf("webm: unsupported ContentEncAlgo %d", enc.EncAlgo)
		}
		enc.KeyID = ce.encryption.keyID
		enc.Encrypted = true
	default:
		return nil, fmt.Errorf("webm: unknown ContentEncodingType %d", enc.Type)
	}
	return enc, nil
}

// contentEncryptionClient decodes the ContentEncryption master element.
type contentEncryptionClient struct {
	algo  *uint64
	keyID []byte
}

func (ce *contentEncryptionClient) OnListStart(id uint32) (Client, bool) { return nil, false }
func (ce *contentEncryptionClient) OnListEnd(id uint32) bool             { return false }
func (ce *contentEncryptionClient) OnFloat(id uint32, val float64) bool  { return false }
func (ce *contentEncryptionClient) OnString(id uint32, val string) bool  { return false }

func (ce *contentEncryptionClient) OnUInt(id uint32, val uint64) bool {
	if id != idContentEncAlgo {
		return false
	}
	ce.algo = &val
	return true
}

func (ce *contentEncryptionClient) OnBinary(id uint32, data []byte) bool {
	if id != idContentEncKeyID {
		return false
	}
	ce.keyID = append([]byte(nil), data...)
	return true
}
