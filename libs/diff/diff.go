package diff

import (
	"reflect"

	odiff "github.com/r3labs/diff/v3"

	"wallet/recipient"
)

func GetCustomDiffer() *odiff.Differ {
	ret, err := odiff.NewDiffer(
		odiff.CustomValueDiffers(&RecipientComparer{}),
		odiff.SliceOrdering(true),
	)
	if err != nil {
		panic(err)
	}
	return ret
}

// Changes returns the changelog between two values of the same type using
// the custom differ.
func Changes(a, b interface{}) (odiff.Changelog, error) {
	return GetCustomDiffer().Diff(a, b)
}

// Paths flattens a changelog into dotted field paths, e.g. "RecentRecipients.0".
func Paths(cl odiff.Changelog) []string {
	paths := make([]string, 0, len(cl))
	for _, c := range cl {
		p := ""
		for i, part := range c.Path {
			if i > 0 {
				p += "."
			}
			p += part
		}
		paths = append(paths, p)
	}
	return paths
}

type RecipientComparer struct{}

var (
	recipientType = reflect.TypeOf(recipient.Recipient{})
)

// Match check is field match this custom type
func (c RecipientComparer) Match(a, b reflect.Value) bool {
	aok := a.Kind() == recipientType.Kind() && a.Type() == recipientType
	bok := b.Kind() == recipientType.Kind() && b.Type() == recipientType
	return (aok && bok) || (a.Kind() == reflect.Invalid && bok) || (b.Kind() == reflect.Invalid && aok)
}

// Diff reports a recipient as a single leaf change keyed by its identity
// instead of one change per field.
func (c RecipientComparer) Diff(_ odiff.DiffType, _ odiff.DiffFunc, cl *odiff.Changelog, path []string, a reflect.Value, b reflect.Value, _ interface{}) error {
	valA := reflect.Indirect(a)
	valB := reflect.Indirect(b)

	if !valA.IsValid() || !valB.IsValid() {
		switch {
		case valA.IsValid():
			cl.Add(odiff.DELETE, path, valA.Interface().(recipient.Recipient).Key(), nil)
		case valB.IsValid():
			cl.Add(odiff.CREATE, path, nil, valB.Interface().(recipient.Recipient).Key())
		}
		return nil
	}

	r1 := valA.Interface().(recipient.Recipient)
	r2 := valB.Interface().(recipient.Recipient)

	if r1 != r2 {
		cl.Add(odiff.UPDATE, path, r1.Key(), r2.Key())
	}
	return nil
}

// InsertParentDiffer is a no-op; a recipient is a leaf.
func (c RecipientComparer) InsertParentDiffer(_ func(path []string, a reflect.Value, b reflect.Value, p interface{}) error) {
}
