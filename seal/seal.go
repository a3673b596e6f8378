// Copyright (c) 2020 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

// Package seal encrypts sensitive element fields, such as authentication
// tokens, with age before they leave the process.
package seal

import (
	"bytes"
	"io"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"
	"github.com/pkg/errors"

	"github.com/forensicanalysis/androidsqlite"
)

// DefaultFields are the element fields sealed when no fields are given.
var DefaultFields = []string{"auth_token"} // nolint:gochecknoglobals

// Sealer encrypts element fields to a set of age recipients.
type Sealer struct {
	recipients []age.Recipient
	fields     []string
}

// New creates a Sealer for the given age recipients ("age1..."). If fields is
// empty, DefaultFields are sealed.
func New(recipients []string, fields ...string) (*Sealer, error) {
	if len(recipients) == 0 {
		return nil, errors.New("at least one recipient is required")
	}

	s := &Sealer{fields: fields}
	if len(s.fields) == 0 {
		s.fields = DefaultFields
	}
	for _, recipient := range recipients {
		r, err := age.ParseX25519Recipient(strings.TrimSpace(recipient))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid recipient %q", recipient)
		}
		s.recipients = append(s.recipients, r)
	}
	return s, nil
}

// Seal encrypts plaintext and returns it ASCII armored.
func (s *Sealer) Seal(plaintext string) (string, error) {
	buf := &bytes.Buffer{}
	armorWriter := armor.NewWriter(buf)

	w, err := age.Encrypt(armorWriter, s.recipients...)
	if err != nil {
		return "", errors.Wrap(err, "could not encrypt")
	}
	if _, err := io.WriteString(w, plaintext); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	if err := armorWriter.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SealElement returns a copy of element with every present string field of
// the sealer replaced by its sealed form. Null fields stay null. A nil
// Sealer returns element unchanged.
func (s *Sealer) SealElement(element androidsqlite.Element) (androidsqlite.Element, error) {
	if s == nil {
		return element, nil
	}

	var sealed androidsqlite.Element
	for _, field := range s.fields {
		value, ok := element[field]
		if !ok {
			continue
		}
		plaintext, present := stringValue(value)
		if !present {
			continue
		}
		ciphertext, err := s.Seal(plaintext)
		if err != nil {
			return nil, errors.Wrapf(err, "could not seal %s", field)
		}
		if sealed == nil {
			sealed = element.Copy()
		}
		sealed[field] = ciphertext
	}
	if sealed == nil {
		return element, nil
	}
	return sealed, nil
}

func stringValue(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case androidsqlite.NullString:
		return v.Get()
	default:
		return "", false
	}
}

// Open decrypts an armored value sealed for identity ("AGE-SECRET-KEY-1...").
func Open(identity, sealed string) (string, error) {
	id, err := age.ParseX25519Identity(strings.TrimSpace(identity))
	if err != nil {
		return "", errors.Wrap(err, "invalid identity")
	}

	r, err := age.Decrypt(armor.NewReader(strings.NewReader(sealed)), id)
	if err != nil {
		return "", errors.Wrap(err, "could not decrypt")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
