package types

import (
	"testing"

	"golang.org/x/crypto/sha3"
)

func TestBloom9BitPositions(t *testing.T) {
	data := []byte("test")
	bits := bloom9(data)

	d := sha3.NewLegacyKeccak256()
	d.Write(data)
	h := d.Sum(nil)
	if h[0] != 0x9c || h[1] != 0x22 {
		t.Fatalf("unexpected keccak256 prefix: %x", h[:6])
	}

	expected := [3]uint{
		0x9c22 & 0x7FF,
		0xff5f & 0x7FF,
		0x21f0 & 0x7FF,
	}

	for i, got := range bits {
		if got != expected[i] {
			t.Errorf("bloom9 bit[%d]: got %d, want %d", i, got, expected[i])
		}
	}
}

func TestBloom9DifferentInputs(t *testing.T) {
	bits1 := bloom9([]byte("hello"))
	bits2 := bloom9([]byte("world"))

	same := 0
	for i := 0; i < 3; i++ {
		if bits1[i] == bits2[i] {
			same++
		}
	}
	if same == 3 {
		t.Fatal("different inputs produced identical bit positions")
	}
}

func TestBloomAddSetsBits(t *testing.T) {
	var bloom Bloom
	BloomAdd(&bloom, []byte("test"))

	allZero := true
	for _, b := range bloom {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		t.Fatal("bloom should have bits set after BloomAdd")
	}

	bits := bloom9([]byte("test"))
	uniqueBits := make(map[uint]bool)
	for _, b := range bits {
		uniqueBits[b] = true
	}

	setBits := 0
	for _, b := range bloom {
		for bit := 0; bit < 8; bit++ {
			if b&(1<<uint(bit)) != 0 {
				setBits++
			}
		}
	}
	if setBits != len(uniqueBits) {
		t.Fatalf("expected %d set bits, got %d", len(uniqueBits), setBits)
	}
}

func TestBloomContainsPositive(t *testing.T) {
	var bloom Bloom
	items := [][]byte{
		[]byte("hello"),
		[]byte("world"),
		[]byte("ethereum"),
	}

	for _, item := range items {
		BloomAdd(&bloom, item)
	}

	for _, item := range items {
		if !BloomContains(bloom, item) {
			t.Errorf("bloom should contain %q", item)
		}
	}
}

func TestBloomContainsEmptyBloom(t *testing.T) {
	var bloom Bloom
	if BloomContains(bloom, []byte("anything")) {
		t.Fatal("empty bloom should not contain anything")
	}
}

func TestLogsBloom(t *testing.T) {
	addr := HexToAddress("0xdead")
	topic1 := HexToHash("0xaabb")
	topic2 := HexToHash("0xccdd")

	logs := []*Log{
		{
			Address: addr,
			Topics:  []Hash{topic1, topic2},
			Data:    []byte{0x01, 0x02},
		},
	}

	bloom := LogsBloom(logs)

	if !BloomContains(bloom, addr.Bytes()) {
		t.Error("bloom should contain log address")
	}
	if !BloomContains(bloom, topic1.Bytes()) {
		t.Error("bloom should contain topic1")
	}
	if !BloomContains(bloom, topic2.Bytes()) {
		t.Error("bloom should contain topic2")
	}
}

func TestLogsBloomMultipleLogs(t *testing.T) {
	addr1 := HexToAddress("0x1111")
	addr2 := HexToAddress("0x2222")
	topic1 := HexToHash("0xaaaa")
	topic2 := HexToHash("0xbbbb")

	logs := []*Log{
		{Address: addr1, Topics: []Hash{topic1}},
		{Address: addr2, Topics: []Hash{topic2}},
	}

	bloom := LogsBloom(logs)

	if !BloomContains(bloom, addr1.Bytes()) {
		t.Error("bloom should contain addr1")
	}
	if !BloomContains(bloom, addr2.Bytes()) {
		t.Error("bloom should contain addr2")
	}
	if !BloomContains(bloom, topic1.Bytes()) {
		t.Error("bloom should contain topic1")
	}
	if !BloomContains(bloom, topic2.Bytes()) {
		t.Error("bloom should contain topic2")
	}
}

func TestLogsBloomEmpty(t *testing.T) {
	bloom := LogsBloom(nil)
	if bloom != (Bloom{}) {
		t.Fatal("bloom from nil logs should be zero")
	}

	bloom = LogsBloom([]*Log{})
	if bloom != (Bloom{}) {
		t.Fatal("bloom from empty logs should be zero")
	}
}
