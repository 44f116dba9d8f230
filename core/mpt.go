package core

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// Trie is a from-scratch Merkle-Patricia Trie over 32-byte node digests.
// Every branch and extension node stores full 32-byte child hashes (no
// short-node inlining), so every node's encoding is a flat RLP list of byte
// strings and can be decoded uniformly regardless of node kind. Nodes are
// content-addressed by Keccak-256 and persisted through a TrieDB, the same
// encode-then-hash pipeline this codebase already uses for RLP block
// decoding and ledger hashing.
//
// The trie only supports Get and Insert: the state layer above it never
// deletes a key, only overwrites it, so no merge-on-delete logic is needed.
type Trie struct {
	db   *TrieDB
	root Hash
}

// NewTrie returns an empty trie backed by db.
func NewTrie(db *TrieDB) *Trie { return &Trie{db: db} }

// TrieFromRoot reopens a previously committed trie at root.
func TrieFromRoot(root Hash, db *TrieDB) *Trie { return &Trie{db: db, root: root} }

// Root returns the trie's current root digest. The zero Hash means empty.
func (t *Trie) Root() Hash { return t.root }

// Keccak256ToHash hashes data into a Hash using the same primitive node
// hashing uses, exported so callers outside the trie can reuse it.
func Keccak256ToHash(data []byte) Hash {
	var h Hash
	copy(h[:], crypto.Keccak256(data))
	return h
}

type leafNode struct {
	Path  []byte
	Value []byte
}

type extensionNode struct {
	Path  []byte
	Child Hash
}

type branchNode struct {
	Children [16]Hash
	Value    []byte
}

// hpEncode applies Ethereum-style hex-prefix encoding to a nibble path,
// folding the leaf/extension distinction and odd/even length into the
// first nibble.
func hpEncode(nibbles []byte, isLeaf bool) []byte {
	flag := byte(0)
	if isLeaf {
		flag = 2
	}
	odd := len(nibbles)%2 == 1
	if odd {
		flag++
	}
	out := make([]byte, 0, len(nibbles)/2+1)
	if odd {
		out = append(out, flag<<4|nibbles[0])
		nibbles = nibbles[1:]
	} else {
		out = append(out, flag<<4)
	}
	for i := 0; i < len(nibbles); i += 2 {
		out = append(out, nibbles[i]<<4|nibbles[i+1])
	}
	return out
}

func hpDecode(data []byte) (nibbles []byte, isLeaf bool) {
	if len(data) == 0 {
		return nil, false
	}
	flag := data[0] >> 4
	isLeaf = flag&2 != 0
	odd := flag&1 != 0
	if odd {
		nibbles = append(nibbles, data[0]&0x0f)
	}
	for _, b := range data[1:] {
		nibbles = append(nibbles, b>>4, b&0x0f)
	}
	return nibbles, isLeaf
}

func bytesToNibbles(b []byte) []byte {
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = c >> 4
		out[i*2+1] = c & 0x0f
	}
	return out
}

func commonPrefixLen(a, b []byte) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func decodeNode(raw []byte) (interface{}, error) {
	var items [][]byte
	if err := rlp.DecodeBytes(raw, &items); err != nil {
		return nil, fmt.Errorf("mpt: decode node: %w", err)
	}
	switch len(items) {
	case 2:
		path, isLeaf := hpDecode(items[0])
		if isLeaf {
			return &leafNode{Path: path, Value: items[1]}, nil
		}
		var child Hash
		copy(child[:], items[1])
		return &extensionNode{Path: path, Child: child}, nil
	case 17:
		var bn branchNode
		for i := 0; i < 16; i++ {
			if len(items[i]) > 0 {
				copy(bn.Children[i][:], items[i])
			}
		}
		if len(items[16]) > 0 {
			bn.Value = items[16]
		}
		return &bn, nil
	default:
		return nil, fmt.Errorf("mpt: node with %d items is neither leaf/extension nor branch", len(items))
	}
}

func (t *Trie) writeLeaf(path, value []byte) (Hash, error) {
	enc, err := rlp.EncodeToBytes([][]byte{hpEncode(path, true), value})
	if err != nil {
		return Hash{}, err
	}
	h := Keccak256ToHash(enc)
	return h, t.db.Insert(h[:], enc)
}

func (t *Trie) writeExtension(path []byte, child Hash) (Hash, error) {
	if len(path) == 0 {
		return child, nil
	}
	enc, err := rlp.EncodeToBytes([][]byte{hpEncode(path, false), child[:]})
	if err != nil {
		return Hash{}, err
	}
	h := Keccak256ToHash(enc)
	return h, t.db.Insert(h[:], enc)
}

func (t *Trie) writeBranch(n *branchNode) (Hash, error) {
	items := make([][]byte, 17)
	for i := 0; i < 16; i++ {
		if n.Children[i] == (Hash{}) {
			items[i] = []byte{}
		} else {
			items[i] = n.Children[i][:]
		}
	}
	if n.Value == nil {
		items[16] = []byte{}
	} else {
		items[16] = n.Value
	}
	enc, err := rlp.EncodeToBytes(items)
	if err != nil {
		return Hash{}, err
	}
	h := Keccak256ToHash(enc)
	return h, t.db.Insert(h[:], enc)
}

// Get looks up key, returning (nil, false, nil) when absent.
func (t *Trie) Get(key []byte) ([]byte, bool, error) {
	if t.root == (Hash{}) {
		return nil, false, nil
	}
	return t.getAt(t.root, bytesToNibbles(key))
}

// Contains reports whether key is present.
func (t *Trie) Contains(key []byte) (bool, error) {
	_, ok, err := t.Get(key)
	return ok, err
}

func (t *Trie) getAt(h Hash, path []byte) ([]byte, bool, error) {
	raw, ok, err := t.db.Get(h[:])
	if err != nil || !ok {
		return nil, false, err
	}
	node, err := decodeNode(raw)
	if err != nil {
		return nil, false, err
	}
	switch n := node.(type) {
	case *leafNode:
		if bytes.Equal(n.Path, path) {
			return n.Value, true, nil
		}
		return nil, false, nil
	case *extensionNode:
		if len(path) < len(n.Path) || !bytes.Equal(n.Path, path[:len(n.Path)]) {
			return nil, false, nil
		}
		return t.getAt(n.Child, path[len(n.Path):])
	case *branchNode:
		if len(path) == 0 {
			if n.Value != nil {
				return n.Value, true, nil
			}
			return nil, false, nil
		}
		child := n.Children[path[0]]
		if child == (Hash{}) {
			return nil, false, nil
		}
		return t.getAt(child, path[1:])
	}
	return nil, false, nil
}

// Insert writes key->value, updating the root in place.
func (t *Trie) Insert(key, value []byte) error {
	newRoot, err := t.insertAt(t.root, bytesToNibbles(key), value)
	if err != nil {
		return err
	}
	t.root = newRoot
	return nil
}

func (t *Trie) insertAt(h Hash, path, value []byte) (Hash, error) {
	if h == (Hash{}) {
		return t.writeLeaf(path, value)
	}
	raw, ok, err := t.db.Get(h[:])
	if err != nil {
		return Hash{}, err
	}
	if !ok {
		return Hash{}, fmt.Errorf("mpt: dangling node reference %x", h)
	}
	node, err := decodeNode(raw)
	if err != nil {
		return Hash{}, err
	}
	switch n := node.(type) {
	case *leafNode:
		if bytes.Equal(n.Path, path) {
			return t.writeLeaf(path, value)
		}
		return t.splitLeaf(n, path, value)
	case *extensionNode:
		common := commonPrefixLen(n.Path, path)
		if common == len(n.Path) {
			childHash, err := t.insertAt(n.Child, path[common:], value)
			if err != nil {
				return Hash{}, err
			}
			return t.writeExtension(n.Path, childHash)
		}
		return t.splitExtension(n, common, path, value)
	case *branchNode:
		if len(path) == 0 {
			n.Value = value
			return t.writeBranch(n)
		}
		idx := path[0]
		childHash, err := t.insertAt(n.Children[idx], path[1:], value)
		if err != nil {
			return Hash{}, err
		}
		n.Children[idx] = childHash
		return t.writeBranch(n)
	}
	return Hash{}, fmt.Errorf("mpt: unknown node type")
}

// splitLeaf handles inserting newPath/newValue when it diverges from an
// existing leaf's path, turning the leaf into a branch (with an optional
// wrapping extension for any shared prefix).
func (t *Trie) splitLeaf(n *leafNode, newPath, newValue []byte) (Hash, error) {
	common := commonPrefixLen(n.Path, newPath)
	var branch branchNode

	if len(n.Path) == common {
		branch.Value = n.Value
	} else {
		idx := n.Path[common]
		h, err := t.writeLeaf(n.Path[common+1:], n.Value)
		if err != nil {
			return Hash{}, err
		}
		branch.Children[idx] = h
	}

	if len(newPath) == common {
		branch.Value = newValue
	} else {
		idx := newPath[common]
		h, err := t.writeLeaf(newPath[common+1:], newValue)
		if err != nil {
			return Hash{}, err
		}
		branch.Children[idx] = h
	}

	branchHash, err := t.writeBranch(&branch)
	if err != nil {
		return Hash{}, err
	}
	if common == 0 {
		return branchHash, nil
	}
	return t.writeExtension(n.Path[:common], branchHash)
}

// splitExtension handles inserting newPath/newValue when it diverges from
// an existing extension's path at offset common.
func (t *Trie) splitExtension(n *extensionNode, common int, newPath, newValue []byte) (Hash, error) {
	var branch branchNode

	remExt := n.Path[common+1:]
	extIdx := n.Path[common]
	var extChild Hash
	var err error
	if len(remExt) == 0 {
		extChild = n.Child
	} else {
		extChild, err = t.writeExtension(remExt, n.Child)
		if err != nil {
			return Hash{}, err
		}
	}
	branch.Children[extIdx] = extChild

	if len(newPath) == common {
		branch.Value = newValue
	} else {
		idx := newPath[common]
		h, err := t.writeLeaf(newPath[common+1:], newValue)
		if err != nil {
			return Hash{}, err
		}
		branch.Children[idx] = h
	}

	branchHash, err := t.writeBranch(&branch)
	if err != nil {
		return Hash{}, err
	}
	if common == 0 {
		return branchHash, nil
	}
	return t.writeExtension(n.Path[:common], branchHash)
}
