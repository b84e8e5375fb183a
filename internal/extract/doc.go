package extract

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Word 97-2003 binary layout (MS-DOC).
const (
	fibIdent          = 0xA5EC
	fibFlagsOffset    = 0x000A
	fibWhichTblStm    = 0x0200
	fibEncrypted      = 0x0100
	fibFcClxOffset    = 0x01A2
	fibLcbClxOffset   = 0x01A6
	clxPrc            = 0x01
	clxPcdt           = 0x02
	pcdSize           = 8
	pieceCompressed   = 0x40000000
	pieceOffsetMask   = 0x3FFFFFFF
	wordFieldBegin    = 0x13
	wordFieldSep      = 0x14
	wordFieldEnd      = 0x15
	wordPageBreak     = 0x0C
	wordCellMark      = 0x07
	wordParagraphMark = 0x0D
	wordLineBreak     = 0x0B
)

var errNotWordDocument = errors.New("not a Word 97-2003 document")

func extractDOC(data []byte) (Document, error) {
	cfb, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return Document{}, fmt.Errorf("open compound file: %w", err)
	}
	streams := map[string][]byte{}
	for entry, err := cfb.Next(); err == nil; entry, err = cfb.Next() {
		switch entry.Name {
		case "WordDocument", "0Table", "1Table":
			buf, err := io.ReadAll(entry)
			if err != nil {
				return Document{}, fmt.Errorf("read %s stream: %w", entry.Name, err)
			}
			streams[entry.Name] = buf
		}
	}

	wordDoc, ok := streams["WordDocument"]
	if !ok {
		return Document{}, errNotWordDocument
	}
	if len(wordDoc) < fibLcbClxOffset+4 || binary.LittleEndian.Uint16(wordDoc) != fibIdent {
		return Document{}, errNotWordDocument
	}
	flags := binary.LittleEndian.Uint16(wordDoc[fibFlagsOffset:])
	if flags&fibEncrypted != 0 {
		return Document{}, errors.New("encrypted Word documents are not supported")
	}
	tableName := "0Table"
	if flags&fibWhichTblStm != 0 {
		tableName = "1Table"
	}
	table, ok := streams[tableName]
	if !ok {
		return Document{}, fmt.Errorf("%s stream missing", tableName)
	}

	raw, err := decodePieceTable(wordDoc, table)
	if err != nil {
		return Document{}, err
	}
	text, layout := cleanWordText(raw)
	return Document{Text: text, Layout: layout}, nil
}

// decodePieceTable reassembles the document text from the piece table
// referenced by the FIB's Clx.
func decodePieceTable(wordDoc, table []byte) (string, error) {
	fcClx := binary.LittleEndian.Uint32(wordDoc[fibFcClxOffset:])
	lcbClx := binary.LittleEndian.Uint32(wordDoc[fibLcbClxOffset:])
	if lcbClx == 0 || uint64(fcClx)+uint64(lcbClx) > uint64(len(table)) {
		return "", errors.New("piece table out of range")
	}
	clx := table[fcClx : fcClx+lcbClx]

	pos := 0
	for pos < len(clx) && clx[pos] == clxPrc {
		if pos+3 > len(clx) {
			return "", errors.New("truncated Prc")
		}
		cb := int(int16(binary.LittleEndian.Uint16(clx[pos+1:])))
		if cb < 0 {
			return "", errors.New("invalid Prc size")
		}
		pos += 3 + cb
	}
	if pos+5 > len(clx) || clx[pos] != clxPcdt {
		return "", errors.New("Pcdt not found")
	}
	lcb := int(binary.LittleEndian.Uint32(clx[pos+1:]))
	plc := clx[pos+5:]
	if lcb > len(plc) || lcb < 4 || (lcb-4)%(4+pcdSize) != 0 {
		return "", errors.New("invalid PlcPcd")
	}
	plc = plc[:lcb]
	n := (lcb - 4) / (4 + pcdSize)
	cps := make([]uint32, n+1)
	for i := range cps {
		cps[i] = binary.LittleEndian.Uint32(plc[i*4:])
	}
	pcds := plc[(n+1)*4:]

	utf16 := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	cp1252 := charmap.Windows1252.NewDecoder()

	var out strings.Builder
	for i := 0; i < n; i++ {
		if cps[i+1] < cps[i] {
			return "", errors.New("piece table not ascending")
		}
		chars := int(cps[i+1] - cps[i])
		fc := binary.LittleEndian.Uint32(pcds[i*pcdSize+2:])
		offset := int(fc & pieceOffsetMask)
		if fc&pieceCompressed != 0 {
			offset /= 2
			if offset+chars > len(wordDoc) {
				return "", fmt.Errorf("piece %d out of range", i)
			}
			decoded, err := cp1252.Bytes(wordDoc[offset : offset+chars])
			if err != nil {
				return "", fmt.Errorf("piece %d: %w", i, err)
			}
			out.Write(decoded)
			continue
		}
		if offset+chars*2 > len(wordDoc) {
			return "", fmt.Errorf("piece %d out of range", i)
		}
		decoded, err := utf16.Bytes(wordDoc[offset : offset+chars*2])
		if err != nil {
			return "", fmt.Errorf("piece %d: %w", i, err)
		}
		out.Write(decoded)
	}
	return out.String(), nil
}

// cleanWordText maps Word control characters to plain text, drops field
// instructions and keeps field results.
func cleanWordText(raw string) (string, Layout) {
	layout := Layout{Fonts: map[string]int{}, PageCount: 1}
	var (
		out   strings.Builder
		instr strings.Builder
		// one entry per open field: true while still in the instruction part
		fields []bool
	)
	for _, r := range raw {
		switch r {
		case wordFieldBegin:
			fields = append(fields, true)
			instr.Reset()
			continue
		case wordFieldSep:
			if len(fields) > 0 {
				fields[len(fields)-1] = false
				if isPageField(instr.String()) {
					layout.PageFields = true
				}
			}
			continue
		case wordFieldEnd:
			if len(fields) > 0 {
				if fields[len(fields)-1] && isPageField(instr.String()) {
					layout.PageFields = true
				}
				fields = fields[:len(fields)-1]
			}
			continue
		}
		if len(fields) > 0 && fields[len(fields)-1] {
			instr.WriteRune(r)
			continue
		}
		switch r {
		case wordParagraphMark, wordLineBreak:
			out.WriteByte('\n')
		case wordCellMark:
			out.WriteByte('\t')
		case wordPageBreak:
			layout.PageCount++
			out.WriteByte('\n')
		default:
			if r < 0x20 && r != '\t' && r != '\n' {
				continue
			}
			out.WriteRune(r)
		}
	}
	return out.String(), layout
}
