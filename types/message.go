package types

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/filecoin-project/go-state-types/crypto"
)

type MsgType string

const (
	MTUnknown        MsgType = "unknown"
	MTProofOfControl MsgType = "proof_of_control"
)

// MsgMeta rides along with sign requests so providers can show the user what
// they are being asked to approve.
type MsgMeta struct {
	Type  MsgType
	Extra []byte
}

// ProofMessage is a zero-value self-directed transfer. Its only purpose is to
// be signable and submittable as evidence of wallet control; it never moves
// value.
type ProofMessage struct {
	Version uint64
	From    address.Address
	To      address.Address
	Value   abi.TokenAmount
	Nonce   uint64
}

func NewProofMessage(owner address.Address, nonce uint64) *ProofMessage {
	return &ProofMessage{
		Version: 0,
		From:    owner,
		To:      owner,
		Value:   big.Zero(),
		Nonce:   nonce,
	}
}

// SigningBytes returns the digest a provider signs for this message.
func (m *ProofMessage) SigningBytes() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return GetSignData(data), nil
}

type SignedProofMessage struct {
	Message   ProofMessage
	Signature crypto.Signature
}

// GetSignData hashes the given byte slices into a single signable digest.
func GetSignData(datas ...[]byte) []byte {
	hasher := sha256.New()
	for _, data := range datas {
		_, _ = hasher.Write(data)
	}
	return hasher.Sum(nil)
}

// NewMintID fabricates the deterministic pseudo-address recorded for a minted
// participation token. It is a local placeholder, not a network-verified
// credential.
func NewMintID(eventID string, owner address.Address, at time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s-%s-%d", eventID, owner, at.UnixMilli())))
	return "PoP" + hex.EncodeToString(sum[:20])
}
