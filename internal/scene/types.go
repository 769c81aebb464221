package scene

// #region feature-names
// Feature names recognized on an Object.
const (
	FeatureType     = "type"
	FeatureRGB      = "rgb"
	FeatureLocation = "location"
	FeatureDim      = "dim"
)

// #endregion feature-names

// #region values
// RGB holds red, green, blue channels in [0, 255].
type RGB [3]float64

// Point is an integer x,y location in the workspace scene.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Dim is an integer width,height pair.
type Dim struct {
	W int `json:"w"`
	H int `json:"h"`
}

// #endregion values

// #region object
// Object is one item in a workspace. Every feature is optional; a nil field
// means the workspace entry did not carry that tag.
type Object struct {
	Type     *string `json:"type,omitempty"`
	RGB      *RGB    `json:"rgb,omitempty"`
	Location *Point  `json:"location,omitempty"`
	Dim      *Dim    `json:"dim,omitempty"`
}

// Features lists the names of the features present on o, in schema order.
func (o Object) Features() []string {
	var names []string
	if o.Type != nil {
		names = append(names, FeatureType)
	}
	if o.RGB != nil {
		names = append(names, FeatureRGB)
	}
	if o.Location != nil {
		names = append(names, FeatureLocation)
	}
	if o.Dim != nil {
		names = append(names, FeatureDim)
	}
	return names
}

// TypeName returns the categorical type, or "" when absent.
func (o Object) TypeName() string {
	if o.Type == nil {
		return ""
	}
	return *o.Type
}

// #endregion object

// #region context
// Context is the ordered set of objects visible at a decision point.
// It is never modified after construction; narrowing yields a new Context.
type Context struct {
	objects []Object
}

// NewContext copies objs into a new Context.
func NewContext(objs []Object) Context {
	cp := make([]Object, len(objs))
	copy(cp, objs)
	return Context{objects: cp}
}

// Len returns the number of objects in c.
func (c Context) Len() int {
	return len(c.objects)
}

// At returns the i-th object.
func (c Context) At(i int) Object {
	return c.objects[i]
}

// Objects returns a copy of the objects in c.
func (c Context) Objects() []Object {
	cp := make([]Object, len(c.objects))
	copy(cp, c.objects)
	return cp
}

// #endregion context
