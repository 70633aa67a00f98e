package logpi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractAddressesIPv4(t *testing.T) {
	exts := ExtractAddresses([]byte("2024-01-01 src=10.0.0.1 dst=192.168.1.1 ok"), false)
	require.Len(t, exts, 2)
	require.Equal(t, AddressIPv4, exts[0].Type)
	require.Equal(t, "10.0.0.1", exts[0].Key)
	require.Equal(t, uint16(2), exts[0].Field)
	require.Equal(t, "192.168.1.1", exts[1].Key)
	require.Equal(t, uint16(3), exts[1].Field)
}

func TestExtractAddressesIPv6Canonicalization(t *testing.T) {
	exts := ExtractAddresses([]byte("host fe80:0000:0000:0000:0000:0000:0000:0001 end"), false)
	require.Len(t, exts, 1)
	require.Equal(t, AddressIPv6, exts[0].Type)
	require.Equal(t, "fe80::1", exts[0].Key)
}

func TestExtractAddressesIPv4MappedIPv6FoldsToOneKey(t *testing.T) {
	exts := ExtractAddresses([]byte("addr=::ffff:192.0.2.1"), false)
	require.Len(t, exts, 1)
	require.Equal(t, AddressIPv6, exts[0].Type)
	require.Equal(t, "::ffff:192.0.2.1", exts[0].Key)
}

func TestExtractAddressesMACCanonicalLowercase(t *testing.T) {
	exts := ExtractAddresses([]byte("mac=AA:BB:CC:DD:EE:FF"), false)
	require.Len(t, exts, 1)
	require.Equal(t, AddressMAC, exts[0].Type)
	require.Equal(t, "aa:bb:cc:dd:ee:ff", exts[0].Key)
}

func TestExtractAddressesMACDashSeparated(t *testing.T) {
	exts := ExtractAddresses([]byte("mac=aa-bb-cc-dd-ee-ff"), false)
	require.Len(t, exts, 1)
	require.Equal(t, AddressMAC, exts[0].Type)
	require.Equal(t, "aa:bb:cc:dd:ee:ff", exts[0].Key)
}

func TestExtractAddressesMixedSeparatorMACRejected(t *testing.T) {
	exts := ExtractAddresses([]byte("mac=aa:bb-cc:dd-ee:ff"), false)
	for _, e := range exts {
		require.NotEqual(t, AddressMAC, e.Type)
	}
}

func TestExtractAddressesNoneFound(t *testing.T) {
	exts := ExtractAddresses([]byte("just a plain log line with no addresses"), false)
	require.Empty(t, exts)
}

func TestExtractAddressesQuotedFieldNonGreedy(t *testing.T) {
	exts := ExtractAddresses([]byte(`msg="src 10.0.0.1 seen" next=172.16.0.1`), false)
	require.Len(t, exts, 2)
	require.Equal(t, uint16(1), exts[0].Field)
	require.Equal(t, uint16(2), exts[1].Field)
}

func TestScanSeparatorsFastMatchesScalar(t *testing.T) {
	buf := []byte("10.0.0.1 aa:bb:cc:dd:ee:ff fe80::1 plain-text-too")
	require.Equal(t, scanSeparatorsScalar(buf), scanSeparatorsFast(buf))
}

func TestHasByteSWAR(t *testing.T) {
	var w uint64
	for i := 0; i < 8; i++ {
		w |= uint64('a') << (8 * i)
	}
	require.True(t, hasByteSWAR(w, 'a'))
	require.False(t, hasByteSWAR(w, 'b'))
}
