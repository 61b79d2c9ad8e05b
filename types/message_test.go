package types

import (
	"strings"
	"testing"
	"time"

	"github.com/filecoin-project/go-address"
	"github.com/stretchr/testify/require"
)

func testAddr(t *testing.T, seed byte) address.Address {
	data := make([]byte, 32)
	data[0] = seed
	addr, err := address.NewSecp256k1Address(data)
	require.NoError(t, err)
	return addr
}

func TestProofMessage(t *testing.T) {
	owner := testAddr(t, 1)
	msg := NewProofMessage(owner, 7)

	require.Equal(t, owner, msg.From)
	require.Equal(t, owner, msg.To)
	require.True(t, msg.Value.IsZero())
	require.EqualValues(t, 7, msg.Nonce)

	digest, err := msg.SigningBytes()
	require.NoError(t, err)
	require.Len(t, digest, 32)

	// stable for identical messages, distinct across nonces
	again, err := NewProofMessage(owner, 7).SigningBytes()
	require.NoError(t, err)
	require.Equal(t, digest, again)

	other, err := NewProofMessage(owner, 8).SigningBytes()
	require.NoError(t, err)
	require.NotEqual(t, digest, other)
}

func TestNewMintID(t *testing.T) {
	owner := testAddr(t, 1)
	at := time.Now()

	id := NewMintID("1", owner, at)
	require.True(t, strings.HasPrefix(id, "PoP"))
	require.Len(t, id, 3+40)

	require.Equal(t, id, NewMintID("1", owner, at))
	require.NotEqual(t, id, NewMintID("2", owner, at))
	require.NotEqual(t, id, NewMintID("1", testAddr(t, 2), at))
	require.NotEqual(t, id, NewMintID("1", owner, at.Add(time.Millisecond)))
}
