package model

import (
	"bufio"
	"encoding/binary"
	"io"
	"io/ioutil"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Magic prefix and version byte of the binary model container. The payload is
// a fixed sequence of little-endian sections: header, character n-grams,
// type n-grams, dictionary, tag submodel. Zstandard wrapping of the on-disk
// file is an external concern; readers here consume decompressed bytes.
const modelMagic = "GoVaporetto Model\n"

const modelVersion = 1

type decoder struct {
	data []byte
	pos  int
	err  error
}

func (d *decoder) fail(format string, args ...interface{}) {
	if d.err == nil {
		d.err = newModelError(format, args...)
	}
}

func (d *decoder) bytes(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.pos+n > len(d.data) {
		d.fail("truncated section at byte %d", d.pos)
		return nil
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b
}

func (d *decoder) u8() uint8 {
	b := d.bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *decoder) u32() uint32 {
	b := d.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *decoder) i32() int32 {
	return int32(d.u32())
}

// count reads a record count and rejects values that cannot possibly fit in
// the remaining bytes, so a corrupt header cannot drive a huge allocation.
func (d *decoder) count(minRecordSize int) int {
	n := int(d.u32())
	if d.err == nil && n*minRecordSize > len(d.data)-d.pos {
		d.fail("section length %d exceeds remaining data at byte %d", n, d.pos)
		return 0
	}
	return n
}

func (d *decoder) str() string {
	n := int(d.u32())
	return string(d.bytes(n))
}

func (d *decoder) weights(n int) []int32 {
	if d.err != nil || n > (len(d.data)-d.pos)/4 {
		d.fail("truncated weight vector at byte %d", d.pos)
		return nil
	}
	ws := make([]int32, n)
	for i := range ws {
		ws[i] = d.i32()
	}
	return ws
}

// ReadBytes parses and validates a model from decompressed bytes.
func ReadBytes(data []byte) (*Model, error) {
	d := &decoder{data: data}
	if magic := d.bytes(len(modelMagic)); d.err != nil || string(magic) != modelMagic {
		return nil, newModelError("bad magic prefix")
	}
	if v := d.u8(); d.err == nil && v != modelVersion {
		return nil, newModelError("unsupported model version %d", v)
	}
	var m Model
	m.Bias = d.i32()
	m.CharWindow = d.u8()
	m.TypeWindow = d.u8()
	d.u32() // feature flags, reserved

	nchar := d.count(8)
	m.CharNgrams = make([]Ngram, 0, nchar)
	for i := 0; i < nchar && d.err == nil; i++ {
		pat := d.str()
		ws := d.weights(int(d.u32()))
		m.CharNgrams = append(m.CharNgrams, Ngram{Pattern: pat, Weights: ws})
	}
	ntype := d.count(8)
	m.TypeNgrams = make([]TypeNgram, 0, ntype)
	for i := 0; i < ntype && d.err == nil; i++ {
		pat := append([]byte(nil), d.bytes(int(d.u32()))...)
		ws := d.weights(int(d.u32()))
		m.TypeNgrams = append(m.TypeNgrams, TypeNgram{Pattern: pat, Weights: ws})
	}
	ndict := d.count(12)
	m.Dict = make([]WordWeightRecord, 0, ndict)
	for i := 0; i < ndict && d.err == nil; i++ {
		word := d.str()
		ws := d.weights(int(d.u32()))
		comment := d.str()
		m.Dict = append(m.Dict, WordWeightRecord{Word: word, Weights: ws, Comment: comment})
	}
	ngroups := d.count(16)
	m.Tags = make([]TagGroup, 0, ngroups)
	for i := 0; i < ngroups && d.err == nil; i++ {
		m.Tags = append(m.Tags, d.tagGroup())
	}
	if d.err != nil {
		return nil, d.err
	}
	if d.pos != len(d.data) {
		return nil, newModelError("%d trailing bytes after the tag section", len(d.data)-d.pos)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (d *decoder) tagGroup() TagGroup {
	var g TagGroup
	g.Name = d.str()
	g.LeftWindow = d.u8()
	g.RightWindow = d.u8()
	nclasses := d.count(4)
	g.Classes = make([]string, 0, nclasses)
	for i := 0; i < nclasses && d.err == nil; i++ {
		g.Classes = append(g.Classes, d.str())
	}
	g.Bias = d.weights(nclasses)
	for _, table := range []*[]TagNgram{&g.Left, &g.Right, &g.Self} {
		n := d.count(8)
		*table = make([]TagNgram, 0, n)
		for i := 0; i < n && d.err == nil; i++ {
			pat := d.str()
			ws := d.weights(nclasses)
			*table = append(*table, TagNgram{Pattern: pat, Weights: ws})
		}
	}
	return g
}

// Read parses and validates a model from a reader of decompressed bytes.
func Read(r io.Reader) (*Model, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ReadBytes(data)
}

// LoadFile memory-maps an uncompressed model file and parses it. The mapping
// is released before returning; the model owns its own memory.
func LoadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer data.Unmap()
	return ReadBytes(data)
}

type encoder struct {
	w       *bufio.Writer
	scratch [4]byte
}

func (e *encoder) u8(v uint8) {
	e.w.WriteByte(v)
}

func (e *encoder) u32(v uint32) {
	binary.LittleEndian.PutUint32(e.scratch[:], v)
	e.w.Write(e.scratch[:])
}

func (e *encoder) i32(v int32) {
	e.u32(uint32(v))
}

func (e *encoder) str(s string) {
	e.u32(uint32(len(s)))
	e.w.WriteString(s)
}

func (e *encoder) weights(ws []int32) {
	for _, w := range ws {
		e.i32(w)
	}
}

// Write validates the model and writes its binary form.
func (m *Model) Write(w io.Writer) error {
	if err := m.Validate(); err != nil {
		return err
	}
	e := &encoder{w: bufio.NewWriter(w)}
	e.w.WriteString(modelMagic)
	e.u8(modelVersion)
	e.i32(m.Bias)
	e.u8(m.CharWindow)
	e.u8(m.TypeWindow)
	e.u32(0) // feature flags, reserved

	e.u32(uint32(len(m.CharNgrams)))
	for _, d := range m.CharNgrams {
		e.str(d.Pattern)
		e.u32(uint32(len(d.Weights)))
		e.weights(d.Weights)
	}
	e.u32(uint32(len(m.TypeNgrams)))
	for _, d := range m.TypeNgrams {
		e.u32(uint32(len(d.Pattern)))
		e.w.Write(d.Pattern)
		e.u32(uint32(len(d.Weights)))
		e.weights(d.Weights)
	}
	e.u32(uint32(len(m.Dict)))
	for _, d := range m.Dict {
		e.str(d.Word)
		e.u32(uint32(len(d.Weights)))
		e.weights(d.Weights)
		e.str(d.Comment)
	}
	e.u32(uint32(len(m.Tags)))
	for _, g := range m.Tags {
		e.str(g.Name)
		e.u8(g.LeftWindow)
		e.u8(g.RightWindow)
		e.u32(uint32(len(g.Classes)))
		for _, c := range g.Classes {
			e.str(c)
		}
		e.weights(g.Bias)
		for _, table := range [][]TagNgram{g.Left, g.Right, g.Self} {
			e.u32(uint32(len(table)))
			for _, d := range table {
				e.str(d.Pattern)
				e.weights(d.Weights)
			}
		}
	}
	return e.w.Flush()
}
