package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeField(t *testing.T) {
	field := EncodeField(987654321)
	assert.Equal(t, [FieldSize]byte{0, 0, 0, 0, 0xB1, 0x68, 0xDE, 0x3A}, field)

	assert.Equal(t, [FieldSize]byte{}, EncodeField(0))
	assert.Equal(t, [FieldSize]byte{0, 0, 0, 0, 0, 0xCC, 0xBB, 0xAA}, EncodeField(0xAABBCC))
	assert.Equal(t, [FieldSize]byte{0, 0, 0, 0x05, 0x04, 0x03, 0x02, 0x01}, EncodeField(0x0102030405))
}

func TestDecodeField(t *testing.T) {
	for _, v := range []int64{0, 1, 173, 9500173, 987654321, 0x0102030405} {
		assert.Equal(t, v, DecodeField(EncodeField(v)), "value %d", v)
	}

	// a zero low byte is indistinguishable from padding
	assert.Equal(t, EncodeField(1), EncodeField(0x100))
	assert.Equal(t, int64(1), DecodeField(EncodeField(0x100)))
}

func TestTableSize(t *testing.T) {
	// 29 + 80 + 1 + 2 + 6*9 + 2 + (6-count)*2, cut to a multiple of 4; two files give 176, not 208
	expected := map[int]int{1: 176, 2: 176, 3: 172, 4: 172, 5: 168, 6: 168}
	for count, size := range expected {
		assert.Equal(t, size, TableSize(count), "count %d", count)
		assert.Zero(t, TableSize(count)%4)
	}
	assert.Equal(t, 178, RawTableSize(1))
}

func TestFirstOffset(t *testing.T) {
	assert.Equal(t, int64(29+80+64), FirstOffset(0))
	assert.Equal(t, int64(29+80+64+9500000), FirstOffset(9500000))
}

func TestTable_MarshalBinary(t *testing.T) {
	table := Table{Count: 2, Offsets: [MaxFiles]int64{987654321, 987654322}}

	data, err := table.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, RawTableSize(2))

	assert.Equal(t, separator, data[:SeparatorSize])
	assert.Equal(t, make([]byte, PasswordSize), data[SeparatorSize:SeparatorSize+PasswordSize])

	pos := SeparatorSize + PasswordSize
	assert.Equal(t, byte(2), data[pos])
	assert.Equal(t, []byte{0, 0}, data[pos+1:pos+3])

	slot1 := data[pos+3 : pos+3+FieldSize]
	assert.Equal(t, []byte{0, 0, 0, 0, 0xB1, 0x68, 0xDE, 0x3A}, slot1)
	assert.Equal(t, byte(0), data[pos+3+FieldSize])

	slot3 := data[pos+3+2*(FieldSize+1) : pos+3+3*(FieldSize+1)]
	assert.Equal(t, make([]byte, FieldSize+1), slot3)
}

func TestTable_MarshalBinary_invalidCount(t *testing.T) {
	_, err := Table{Count: 0}.MarshalBinary()
	assert.EqualError(t, err, "invalid file count 0")

	_, err = Table{Count: 7}.MarshalBinary()
	assert.EqualError(t, err, "invalid file count 7")
}

func TestTable_UnmarshalBinary(t *testing.T) {
	for count := 1; count <= MaxFiles; count++ {
		table := Table{Count: count}
		for slot := 0; slot < count; slot++ {
			table.Offsets[slot] = FirstOffset(1000) + int64(slot*333)
		}
		data, err := table.MarshalBinary()
		require.NoError(t, err)

		var parsed Table
		err = parsed.UnmarshalBinary(data[:TableSize(count)])
		assert.NoError(t, err)
		assert.Equal(t, table, parsed)
	}
}

func TestTable_UnmarshalBinary_corrupt(t *testing.T) {
	data, err := Table{Count: 1, Offsets: [MaxFiles]int64{500}}.MarshalBinary()
	require.NoError(t, err)

	var parsed Table
	assert.EqualError(t, parsed.UnmarshalBinary(data[:100]), "incomplete offset table")

	broken := append([]byte(nil), data...)
	broken[0] = 'X'
	assert.EqualError(t, parsed.UnmarshalBinary(broken), "missing separator")

	broken = append([]byte(nil), data...)
	broken[SeparatorSize+PasswordSize] = 9
	assert.EqualError(t, parsed.UnmarshalBinary(broken), "invalid file count 9")

	broken = append([]byte(nil), data...)
	broken[SeparatorSize+PasswordSize+3+FieldSize+1+FieldSize-1] = 1
	assert.EqualError(t, parsed.UnmarshalBinary(broken), "unused slot 2 holds offset 1")
}
