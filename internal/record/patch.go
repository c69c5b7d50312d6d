package record

// FieldSet is the partial field map sent to the document store by an update
// or create. Field sets are only ever built through the typed patch builders
// below, so an invalid field name cannot appear at a call site.
type FieldSet map[string]any

// Patch produces the field set of one mutation.
type Patch interface {
	Fields() FieldSet
}

// Field names as stored in the document store.
const (
	keyMedicineName = "medicineName"
	keyIndications  = "indications"
	keyDoses        = "doses"
	keyWeight       = "weight"
	keyPrice        = "price"
	keyCategory     = "category"
	keyStatus       = "deliveryStatus"

	// KeyImageURL names the asset-reference field. It is written only by the
	// mutation coordinator after a successful upload, never by a patch.
	KeyImageURL = "imageUrl"
)

// MedicinePatch is a partial update of a catalog item. Zero value changes
// nothing; each With method marks exactly one field for writing. A patch
// never carries the asset-reference key, so an update without a new image
// can never null the stored one.
type MedicinePatch struct {
	name        *string
	indications *string
	doses       *string
	weight      *string
	price       *string
	category    *string
}

func (p MedicinePatch) WithName(v string) MedicinePatch        { p.name = &v; return p }
func (p MedicinePatch) WithIndications(v string) MedicinePatch { p.indications = &v; return p }
func (p MedicinePatch) WithDoses(v string) MedicinePatch       { p.doses = &v; return p }
func (p MedicinePatch) WithWeight(v string) MedicinePatch      { p.weight = &v; return p }
func (p MedicinePatch) WithPrice(v string) MedicinePatch       { p.price = &v; return p }
func (p MedicinePatch) WithCategory(v string) MedicinePatch    { p.category = &v; return p }

// Fields returns the set fields only.
func (p MedicinePatch) Fields() FieldSet {
	fs := FieldSet{}
	if p.name != nil {
		fs[keyMedicineName] = *p.name
	}
	if p.indications != nil {
		fs[keyIndications] = *p.indications
	}
	if p.doses != nil {
		fs[keyDoses] = *p.doses
	}
	if p.weight != nil {
		fs[keyWeight] = *p.weight
	}
	if p.price != nil {
		fs[keyPrice] = *p.price
	}
	if p.category != nil {
		fs[keyCategory] = *p.category
	}
	return fs
}

// NewMedicineFields is the full field set of a newly created catalog item.
// The asset reference is intentionally absent; the coordinator attaches it
// after the upload has resolved to a URL.
func NewMedicineFields(m Medicine) FieldSet {
	return FieldSet{
		keyMedicineName: m.MedicineName,
		keyIndications:  m.Indications,
		keyDoses:        m.Doses,
		keyWeight:       m.Weight,
		keyPrice:        string(m.Price),
		keyCategory:     m.Category,
	}
}

// StatusPatch is the restricted order mutation: it touches only the
// delivery-status field.
type StatusPatch struct {
	Status string
}

func (p StatusPatch) Fields() FieldSet {
	return FieldSet{keyStatus: p.Status}
}
