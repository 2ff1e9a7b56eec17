package hfile

import "github.com/pkg/errors"

// ohdrSignature begins every version 2 object header.
var ohdrSignature = []byte("OHDR")

// Message is one framed header message: a type identifier and its body.
type Message struct {
	Type uint8
	Body []byte
}

// EncodeBody serializes any of the profile's message structs into a framed
// Message.
func EncodeBody(typ uint8, enc interface{ Encode(*Encoder) }) Message {
	e := NewEncoder()
	enc.Encode(e)
	return Message{Type: typ, Body: e.Bytes()}
}

// HeaderSize reports the encoded size of a version 2 object header carrying
// the given messages.
//
// Framing per message is type(1) + size(2) + flags(1); the header proper is
// signature(4) + version(1) + flags(1) + chunk size(4), followed by the
// messages and a 4-byte checksum.
func HeaderSize(msgs []Message) int {
	size := 4 + 1 + 1 + 4
	for _, m := range msgs {
		size += 4 + len(m.Body)
	}
	return size + 4
}

// EncodeHeader serializes a version 2 object header.
func EncodeHeader(msgs []Message) []byte {
	var chunk int
	for _, m := range msgs {
		chunk += 4 + len(m.Body)
	}

	e := NewEncoder()
	e.Raw(ohdrSignature)
	e.U8(2)    // version
	e.U8(0x02) // flags: 4-byte size-of-chunk field, nothing optional
	e.U32(uint32(chunk))
	for _, m := range msgs {
		e.U8(m.Type)
		e.U16(uint16(len(m.Body)))
		e.U8(0) // message flags
		e.Raw(m.Body)
	}
	e.U32(Lookup3(e.Bytes()))
	return e.Bytes()
}

// DecodeHeaderPrefix parses just enough of a header at the start of buf to
// learn its full size. buf must hold at least HeaderPrefixSize bytes.
const HeaderPrefixSize = 10

func DecodeHeaderPrefix(buf []byte) (total int, err error) {
	d := NewDecoder(buf)
	sig := d.Raw(4)
	if string(sig) != string(ohdrSignature) {
		return 0, errors.New("hfile: missing object header signature")
	}
	version := d.U8()
	flags := d.U8()
	if version != 2 || flags != 0x02 {
		return 0, errors.WithMessage(ErrOutOfProfile, "object header")
	}
	chunk := d.U32()
	if err := d.Err(); err != nil {
		return 0, err
	}
	return HeaderPrefixSize + int(chunk) + 4, nil
}

// DecodeHeader parses a complete version 2 object header, verifying its
// checksum, and returns its framed messages. NIL messages are dropped.
func DecodeHeader(buf []byte) ([]Message, error) {
	total, err := DecodeHeaderPrefix(buf)
	if err != nil {
		return nil, err
	}
	if len(buf) < total {
		return nil, errors.New("hfile: truncated object header")
	}
	buf = buf[:total]

	d := NewDecoder(buf[HeaderPrefixSize : total-4])
	var msgs []Message
	for d.Remaining() > 0 {
		typ := d.U8()
		size := d.U16()
		d.U8() // message flags
		body := d.Raw(int(size))
		if err := d.Err(); err != nil {
			return nil, err
		}
		if typ == MsgNil {
			continue
		}
		msgs = append(msgs, Message{Type: typ, Body: body})
	}

	stored := NewDecoder(buf[total-4:]).U32()
	if stored != Lookup3(buf[:total-4]) {
		return nil, errors.New("hfile: object header checksum mismatch")
	}
	return msgs, nil
}
