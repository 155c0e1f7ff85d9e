package proof

import (
	"encoding/json"
	"io"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
	"golang.org/x/xerrors"
)

const (
	StandardSnapshotFormat = "ercmerkle-v1"
	LayeredSnapshotFormat  = "layered-v1"
)

type ValueData struct {
	Value     hexutil.Bytes `json:"value"`
	TreeIndex int           `json:"treeIndex"`
}

// StandardTreeData is the persisted form of a StandardTree.
type StandardTreeData struct {
	Format string      `json:"format"`
	Tree   []Digest    `json:"tree"`
	Values []ValueData `json:"values"`
	Type   HashType    `json:"type"`
	Width  int         `json:"width"`
}

// LayeredTreeData is the persisted form of a LayeredTree.
type LayeredTreeData struct {
	Format    string     `json:"format"`
	Type      HashType   `json:"type"`
	Width     int        `json:"width"`
	PairInput int        `json:"pairInput,omitempty"`
	Layers    [][]Digest `json:"layers"`
}

func (t *StandardTree) Dump() StandardTreeData {
	return StandardTreeData{
		Format: StandardSnapshotFormat,
		Tree:   cloneDigests(t.tree),
		Values: lo.Map(t.values, func(v ValueEntry, _ int) ValueData {
			return ValueData{Value: append([]byte(nil), v.Value...), TreeIndex: v.TreeIndex}
		}),
		Type:  t.hasher.Type,
		Width: t.hasher.Width,
	}
}

// LoadStandardTree restores a tree from a snapshot. The format tag, node
// widths and heap shape are checked; call Validate to recheck the hashes.
func LoadStandardTree(data StandardTreeData) (*StandardTree, error) {
	if data.Format != StandardSnapshotFormat {
		return nil, xerrors.Errorf("%q: %w", data.Format, ErrUnknownFormat)
	}
	h := Hasher{Type: data.Type, Width: data.Width}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if len(data.Tree) == 0 {
		return nil, ErrEmptyInput
	}
	if len(data.Tree)%2 == 0 {
		return nil, xerrors.Errorf("heap of %d nodes is not a full binary tree: %w", len(data.Tree), ErrIndexOutOfRange)
	}
	for i, node := range data.Tree {
		if err := h.checkDigest(node); err != nil {
			return nil, xerrors.Errorf("node %d: %w", i, err)
		}
	}
	if leaves := (len(data.Tree) + 1) / 2; len(data.Values) != leaves {
		return nil, xerrors.Errorf("snapshot has %d values for %d leaves: %w", len(data.Values), leaves, ErrIndexOutOfRange)
	}
	for i, v := range data.Values {
		if !isLeafNode(data.Tree, v.TreeIndex) {
			return nil, xerrors.Errorf("value %d: tree index %d is not a leaf: %w", i, v.TreeIndex, ErrIndexOutOfRange)
		}
	}

	values := lo.Map(data.Values, func(v ValueData, _ int) ValueEntry {
		return ValueEntry{Value: append([]byte(nil), v.Value...), TreeIndex: v.TreeIndex}
	})
	return newStandardTree(h, cloneDigests(data.Tree), values), nil
}

func (t *LayeredTree) Dump() LayeredTreeData {
	return LayeredTreeData{
		Format:    LayeredSnapshotFormat,
		Type:      t.hasher.Type,
		Width:     t.hasher.Width,
		PairInput: t.hasher.PairInput,
		Layers:    cloneLayers(t.layers),
	}
}

// LoadLayeredTree restores a layered tree from a snapshot without re-reading
// the original data.
func LoadLayeredTree(data LayeredTreeData) (*LayeredTree, error) {
	if data.Format != LayeredSnapshotFormat {
		return nil, xerrors.Errorf("%q: %w", data.Format, ErrUnknownFormat)
	}
	h := Hasher{Type: data.Type, Width: data.Width, PairInput: data.PairInput}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if len(data.Layers) == 0 || len(data.Layers[0]) == 0 {
		return nil, ErrEmptyInput
	}

	sizes := levelSizes(len(data.Layers[0]))
	if len(sizes) != len(data.Layers) {
		return nil, xerrors.Errorf("snapshot has %d layers, %d leaves need %d", len(data.Layers), len(data.Layers[0]), len(sizes))
	}
	for level, layer := range data.Layers {
		if len(layer) != sizes[level] {
			return nil, xerrors.Errorf("layer %d has %d nodes, want %d", level, len(layer), sizes[level])
		}
		for i, node := range layer {
			if err := h.checkDigest(node); err != nil {
				return nil, xerrors.Errorf("layer %d node %d: %w", level, i, err)
			}
		}
	}

	log.Debugw("loaded layered tree", "leaves", len(data.Layers[0]), "layers", len(data.Layers), "hash", h.Type)
	return &LayeredTree{hasher: h, layers: cloneLayers(data.Layers)}, nil
}

func cloneDigests(in []Digest) []Digest {
	return lo.Map(in, func(d Digest, _ int) Digest { return append(Digest(nil), d...) })
}

func cloneLayers(in [][]Digest) [][]Digest {
	return lo.Map(in, func(l []Digest, _ int) []Digest { return cloneDigests(l) })
}

func WriteSnapshot(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return xerrors.Errorf("encoding snapshot: %w", err)
	}
	return nil
}

func ReadStandardSnapshot(r io.Reader) (*StandardTree, error) {
	var data StandardTreeData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, xerrors.Errorf("decoding snapshot: %w", err)
	}
	return LoadStandardTree(data)
}

func ReadLayeredSnapshot(r io.Reader) (*LayeredTree, error) {
	var data LayeredTreeData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, xerrors.Errorf("decoding snapshot: %w", err)
	}
	return LoadLayeredTree(data)
}
