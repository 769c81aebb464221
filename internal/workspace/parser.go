package workspace

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/reg-trainer/internal/scene"
)

// KeyItemID tags the item a workspace's description refers to.
const KeyItemID = "KEY"

// #region xml-node
// node is a generic element; workspace files address children by position
// as well as by tag, so a fixed struct mapping is not enough.
type node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Text    string     `xml:",chardata"`
	Nodes   []node     `xml:",any"`
}

func (n node) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n node) text() string {
	return strings.TrimSpace(n.Text)
}

// #endregion xml-node

// #region dispatch
type featureParser func(o *scene.Object, n node) error

// featureParsers maps an item's child tag to the Object field it fills.
// Tags not listed here are ignored.
var featureParsers = map[string]featureParser{
	"type":       parseType,
	"hsv":        parseHSV,
	"location":   parseLocation,
	"dimensions": parseDimensions,
}

func parseType(o *scene.Object, n node) error {
	t := n.text()
	o.Type = &t
	return nil
}

func parseHSV(o *scene.Object, n node) error {
	parts := strings.Split(n.text(), ",")
	if len(parts) != 3 {
		return fmt.Errorf("hsv %q: want 3 components: %w", n.text(), ErrMalformedValue)
	}
	var hsv [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fmt.Errorf("hsv %q: %w", n.text(), ErrMalformedValue)
		}
		hsv[i] = f
	}
	rgb := scene.RGBFromHSV(hsv[0], hsv[1], hsv[2])
	o.RGB = &rgb
	return nil
}

func parseLocation(o *scene.Object, n node) error {
	x, y, err := intPair(n)
	if err != nil {
		return fmt.Errorf("location: %w", err)
	}
	o.Location = &scene.Point{X: x, Y: y}
	return nil
}

func parseDimensions(o *scene.Object, n node) error {
	w, h, err := intPair(n)
	if err != nil {
		return fmt.Errorf("dimensions: %w", err)
	}
	o.Dim = &scene.Dim{W: w, H: h}
	return nil
}

// intPair reads the first two children of n as integers.
func intPair(n node) (int, int, error) {
	if len(n.Nodes) < 2 {
		return 0, 0, fmt.Errorf("want 2 child elements, got %d: %w", len(n.Nodes), ErrMissingField)
	}
	a, err := strconv.Atoi(n.Nodes[0].text())
	if err != nil {
		return 0, 0, fmt.Errorf("%q: %w", n.Nodes[0].text(), ErrMalformedValue)
	}
	b, err := strconv.Atoi(n.Nodes[1].text())
	if err != nil {
		return 0, 0, fmt.Errorf("%q: %w", n.Nodes[1].text(), ErrMalformedValue)
	}
	return a, b, nil
}

// #endregion dispatch

// #region parse
// ParseFile opens path and adds its workspaces to store.
func ParseFile(path string, store *Store) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open workspaces %s: %w", path, err)
	}
	defer f.Close()
	if err := Parse(f, store); err != nil {
		return fmt.Errorf("parse workspaces %s: %w", path, err)
	}
	return nil
}

// Parse reads a workspace document (root > workspace[id] > item[id] > feature
// tags) and adds one Entry per workspace to store, in document order.
func Parse(r io.Reader, store *Store) error {
	var root node
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return fmt.Errorf("decode xml: %w", err)
	}

	for _, ws := range root.Nodes {
		entry, err := parseWorkspace(ws)
		if err != nil {
			return err
		}
		if err := store.Add(entry); err != nil {
			return err
		}
	}
	return nil
}

func parseWorkspace(ws node) (Entry, error) {
	id, ok := ws.attr("id")
	if !ok {
		return Entry{}, fmt.Errorf("workspace <%s> without id: %w", ws.XMLName.Local, ErrMissingField)
	}

	objs := make([]scene.Object, 0, len(ws.Nodes))
	var key *scene.Object
	for _, item := range ws.Nodes {
		itemID, ok := item.attr("id")
		if !ok {
			return Entry{}, fmt.Errorf("workspace %s: item without id: %w", id, ErrMissingField)
		}

		var o scene.Object
		for _, datum := range item.Nodes {
			parse, ok := featureParsers[datum.XMLName.Local]
			if !ok {
				continue
			}
			if err := parse(&o, datum); err != nil {
				return Entry{}, fmt.Errorf("workspace %s item %s: %w", id, itemID, err)
			}
		}

		if itemID == KeyItemID {
			k := o
			key = &k
		}
		objs = append(objs, o)
	}

	if key == nil {
		return Entry{}, fmt.Errorf("workspace %s: %w", id, ErrNoKeyObject)
	}
	return Entry{ID: id, Key: *key, Context: scene.NewContext(objs)}, nil
}

// #endregion parse
