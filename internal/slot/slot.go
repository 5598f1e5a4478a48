// Package slot translates inventory slot numbers between the TAKP and
// PEQ database layouts.
//
// TAKP numbers bag interiors flat (10 slots per bag, back to back), PEQ
// reserves a 200-slot stride per bag. A single offset therefore cannot
// work for bag ranges: the slot must be decomposed into (bag, interior)
// under the old stride and recomposed under the new one.
package slot

import "go.uber.org/zap"

// TAKP slot layout (source schema).
const (
	TAKPCursor          int32 = 0 // slot 0 is the cursor, not charm
	TAKPAmmo            int32 = 21
	TAKPGeneralBegin    int32 = 22
	TAKPGeneralEnd      int32 = 29
	TAKPGeneralBagBegin int32 = 250 // 8 bags x 10 slots
	TAKPGeneralBagEnd   int32 = 329
	TAKPCursorBagBegin  int32 = 330
	TAKPCursorBagEnd    int32 = 339
	TAKPBankBegin       int32 = 2000
	TAKPBankEnd         int32 = 2007
	TAKPBankBagBegin    int32 = 2030 // 8 bags x 10 slots
	TAKPBankBagEnd      int32 = 2109
	TAKPTradeBegin      int32 = 3000
	TAKPTradeBagEnd     int32 = 3109
)

// PEQ slot layout (target schema).
const (
	PEQCharm           int32 = 0 // slot 0 is charm in PEQ
	PEQAmmo            int32 = 22
	PEQGeneralBegin    int32 = 23
	PEQCursor          int32 = 33
	PEQGeneralBagBegin int32 = 4010 // 10 bags x 200 slots
	PEQCursorBagBegin  int32 = 6010
	PEQBankBagBegin    int32 = 6210 // 24 bags x 200 slots

	// PEQ reserves 200 interior slots per bag; TAKP bags only ever
	// fill the first 10 of each stride.
	PEQBagStride int32 = 200
)

const takpBagWidth = 10

// rule maps one contiguous source range onto the target layout.
type rule struct {
	name   string
	lo, hi int32
	apply  func(int32) int32
}

// Translator converts TAKP slot numbers to PEQ slot numbers. Unmapped
// input (trade slots, future ranges) passes through unchanged with a
// warning; Translate never fails.
type Translator struct {
	log   *zap.Logger
	rules []rule
}

func NewTranslator(log *zap.Logger) *Translator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Translator{
		log: log,
		rules: []rule{
			{"worn/general", 0, TAKPGeneralEnd, translateWorn},
			{"general bags", TAKPGeneralBagBegin, TAKPGeneralBagEnd,
				bagTransform(TAKPGeneralBagBegin, PEQGeneralBagBegin)},
			{"cursor bag", TAKPCursorBagBegin, TAKPCursorBagEnd, func(s int32) int32 {
				return PEQCursorBagBegin + (s - TAKPCursorBagBegin)
			}},
			{"bank", TAKPBankBegin, TAKPBankEnd, func(s int32) int32 {
				return s // first 8 bank slots are numbered identically
			}},
			{"bank bags", TAKPBankBagBegin, TAKPBankBagEnd,
				bagTransform(TAKPBankBagBegin, PEQBankBagBegin)},
		},
	}
}

// Translate maps a TAKP slot number to its PEQ equivalent. Rules are
// checked in order, first match wins.
func (t *Translator) Translate(src int32) int32 {
	for _, r := range t.rules {
		if src >= r.lo && src <= r.hi {
			return r.apply(src)
		}
	}
	t.log.Warn("unknown TAKP slot, passing through unchanged", zap.Int32("slot", src))
	return src
}

// translateWorn covers the contiguous 0-29 block: equipment plus the
// eight general inventory slots. Worn slots 1-20 are numbered
// identically in both layouts.
func translateWorn(s int32) int32 {
	switch {
	case s == TAKPCursor:
		return PEQCursor
	case s == TAKPAmmo:
		return PEQAmmo // PEQ inserts power_source at 21
	case s >= TAKPGeneralBegin:
		return PEQGeneralBegin + (s - TAKPGeneralBegin)
	default:
		return s
	}
}

// bagTransform decomposes a slot under the flat TAKP numbering and
// recomposes it under the PEQ per-bag stride.
func bagTransform(srcBegin, dstBegin int32) func(int32) int32 {
	return func(s int32) int32 {
		offset := s - srcBegin
		bag := offset / takpBagWidth
		interior := offset % takpBagWidth
		return dstBegin + bag*PEQBagStride + interior
	}
}
