package report

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/emersion/go-vcard"
	"github.com/tartampluch/go-gedcheck/internal/calendar"
	"github.com/tartampluch/go-gedcheck/internal/config"
	"github.com/tartampluch/go-gedcheck/internal/gedcom"
)

// vcardDate renders v with the reduced accuracy vCard 4.0 allows
// ("1850", "1850-05", "1850-05-17"), in the Gregorian calendar.
func vcardDate(v *gedcom.DateValue) (string, bool) {
	if v == nil {
		return "", false
	}
	d, ok := v.Representative()
	if !ok {
		return "", false
	}
	y, m, day := d.In(calendar.Gregorian).YMD()
	switch v.Precision {
	case gedcom.PrecisionYear:
		return fmt.Sprintf("%04d", y), true
	case gedcom.PrecisionMonth:
		return fmt.Sprintf("%04d-%02d", y, m), true
	case gedcom.PrecisionDay:
		return fmt.Sprintf(config.DateFormatISO, y, m, day), true
	}
	return "", false
}

// WriteVCards encodes every individual with a known birth or death date
// as a vCard 4.0 and returns how many cards were written.
func WriteVCards(w io.Writer, doc *gedcom.Document) (int, error) {
	enc := vcard.NewEncoder(w)
	written := 0

	for _, ind := range doc.Individuals {
		bday, hasBirth := vcardDate(ind.Birth)
		dday, hasDeath := vcardDate(ind.Death)
		if !hasBirth && !hasDeath {
			continue
		}

		name := ind.Name
		if name == "" {
			name = config.FallbackName
		}

		card := make(vcard.Card)
		card.SetValue(vcard.FieldVersion, "4.0")
		card.SetValue(vcard.FieldFormattedName, name)
		card.SetValue(vcard.FieldUID, uidFor(ind.ID))
		card.SetValue(vcard.FieldNote, ind.ID)
		if hasBirth {
			card.SetValue(vcard.FieldBirthday, bday)
		}
		if hasDeath {
			// RFC 6474
			card.SetValue(config.VCardDeathDate, dday)
		}

		if err := enc.Encode(card); err != nil {
			return written, fmt.Errorf("%s: %w", config.ErrVCardEncode, err)
		}
		written++
	}
	return written, nil
}

// uidFor derives a stable card UID from the individual's xref.
func uidFor(id string) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf(config.FormatHashInput, id, config.VCardUID, config.UIDSalt)))
	return fmt.Sprintf("%x@%s", hash[:config.UIDHashLength], config.ICalDomain)
}
