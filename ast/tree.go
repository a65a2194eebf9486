package ast

import (
	"fmt"
	"strings"
	"sync"

	"lc/report"
)

// Block represents an ordered list of statements.  The block stores the ID of
// the statement that owns it (eg. an object declaration or a loop) or NoStmt
// if it is the body of the file.
type Block struct {
	ASTBase

	id BlockID

	// Owner is the statement owning this block.
	Owner StmtID

	// Stmts are the statements of the block in source order.
	Stmts []StmtID
}

// ID returns the arena ID of the block.
func (b *Block) ID() BlockID {
	return b.id
}

// -----------------------------------------------------------------------------

// Tree is the arena holding every statement and block of one source file.  The
// root block (the file body) is created with the tree.  Every structural change
// bumps the tree's revision which invalidates derived data such as qualified
// declaration paths.
type Tree struct {
	// stmts and blocks are indexed by ID: slot zero is reserved for the
	// sentinel IDs.
	stmts  []Stmt
	blocks []*Block

	revision uint64

	// pathCache caches qualified paths for the revision pathCacheRev.  Paths
	// of one file are read while lowering the files importing it so the cache
	// is guarded by pathMu.
	pathMu       sync.Mutex
	pathCache    map[StmtID]string
	pathCacheRev uint64
}

// NewTree creates a new tree whose root block spans span.
func NewTree(span *report.TextSpan) *Tree {
	t := &Tree{
		stmts:  []Stmt{nil},
		blocks: []*Block{nil},
	}

	t.newBlock(NoStmt, span)
	return t
}

// Root returns the ID of the root block.
func (t *Tree) Root() BlockID {
	return 1
}

// Revision returns the structural revision of the tree.
func (t *Tree) Revision() uint64 {
	return t.revision
}

// Len returns the number of statements stored in the tree.
func (t *Tree) Len() int {
	return len(t.stmts) - 1
}

// Block returns the block with the given ID or nil if there is no such block.
func (t *Tree) Block(id BlockID) *Block {
	if !id.IsValid() || int(id) >= len(t.blocks) {
		return nil
	}

	return t.blocks[id]
}

// Stmt returns the statement with the given ID or nil if there is no such
// statement.
func (t *Tree) Stmt(id StmtID) Stmt {
	if !id.IsValid() || int(id) >= len(t.stmts) {
		return nil
	}

	return t.stmts[id]
}

// Stmts returns the statements of a block in source order.
func (t *Tree) Stmts(id BlockID) []Stmt {
	b := t.Block(id)
	if b == nil {
		return nil
	}

	stmts := make([]Stmt, len(b.Stmts))
	for i, sid := range b.Stmts {
		stmts[i] = t.stmts[sid]
	}

	return stmts
}

// -----------------------------------------------------------------------------

// AddImport appends an import to the block parent.
func (t *Tree) AddImport(parent BlockID, path, alias string, span *report.TextSpan) *Import {
	imp := &Import{Path: path, Alias: alias}
	t.add(parent, imp, span)
	return imp
}

// AddObjectDecl appends an object declaration with an empty body to the block
// parent.
func (t *Tree) AddObjectDecl(parent BlockID, name string, kind ObjectKind, span *report.TextSpan) *ObjectDecl {
	od := &ObjectDecl{Name: name, Kind: kind}
	id := t.add(parent, od, span)
	od.Body = t.newBlock(id, span)
	return od
}

// AddFuncDecl appends a function declaration with an empty body to the block
// parent.
func (t *Tree) AddFuncDecl(parent BlockID, name string, params []Param, ret TypeRef, span *report.TextSpan) *FuncDecl {
	fd := &FuncDecl{Name: name, Params: params, ReturnType: ret}
	id := t.add(parent, fd, span)
	fd.Body = t.newBlock(id, span)
	return fd
}

// AddVarDecl appends a variable declaration to the block parent.
func (t *Tree) AddVarDecl(parent BlockID, name string, typ TypeRef, init Expr, span *report.TextSpan) *VarDecl {
	vd := &VarDecl{Name: name, Type: typ, Init: init, NameSpan: span}
	t.add(parent, vd, span)
	return vd
}

// AddExprStmt appends an expression statement to the block parent.
func (t *Tree) AddExprStmt(parent BlockID, expr Expr, span *report.TextSpan) *ExprStmt {
	es := &ExprStmt{Expr: expr}
	t.add(parent, es, span)
	return es
}

// AddReturn appends a return statement to the block parent.  The value may be
// nil.
func (t *Tree) AddReturn(parent BlockID, value Expr, span *report.TextSpan) *Return {
	ret := &Return{Value: value}
	t.add(parent, ret, span)
	return ret
}

// AddIf appends an if statement to the block parent.  The else block is only
// created if withElse is set.
func (t *Tree) AddIf(parent BlockID, cond Expr, withElse bool, span *report.TextSpan) *If {
	ifs := &If{Cond: cond}
	id := t.add(parent, ifs, span)

	ifs.Then = t.newBlock(id, span)
	if withElse {
		ifs.Else = t.newBlock(id, span)
	}

	return ifs
}

// AddWhile appends a while loop to the block parent.
func (t *Tree) AddWhile(parent BlockID, cond Expr, span *report.TextSpan) *While {
	ws := &While{Cond: cond}
	id := t.add(parent, ws, span)
	ws.Body = t.newBlock(id, span)
	return ws
}

// AddBlockStmt appends a nested block to the block parent.
func (t *Tree) AddBlockStmt(parent BlockID, span *report.TextSpan) *BlockStmt {
	bs := &BlockStmt{}
	id := t.add(parent, bs, span)
	bs.Body = t.newBlock(id, span)
	return bs
}

// Move detaches the statement id from its block and appends it to the block
// to.  Moving a statement into its own subtree is an error.
func (t *Tree) Move(id StmtID, to BlockID) error {
	s := t.Stmt(id)
	dest := t.Block(to)
	if s == nil || dest == nil {
		return fmt.Errorf("ast: cannot move statement %d to block %d", id, to)
	}

	for owner := dest.Owner; owner.IsValid(); owner = t.blocks[t.stmts[owner].Parent()].Owner {
		if owner == id {
			return fmt.Errorf("ast: cannot move statement %d into its own body", id)
		}
	}

	src := t.blocks[s.Parent()]
	for i, sid := range src.Stmts {
		if sid == id {
			src.Stmts = append(src.Stmts[:i], src.Stmts[i+1:]...)
			break
		}
	}

	dest.Stmts = append(dest.Stmts, id)
	s.base().parent = to
	t.revision++
	return nil
}

// add registers s in the arena as the last statement of parent.
func (t *Tree) add(parent BlockID, s Stmt, span *report.TextSpan) StmtID {
	b := t.Block(parent)
	if b == nil {
		panic(fmt.Sprintf("ast: invalid parent block %d", parent))
	}

	sb := s.base()
	sb.span = span
	sb.id = StmtID(len(t.stmts))
	sb.parent = parent

	t.stmts = append(t.stmts, s)
	b.Stmts = append(b.Stmts, sb.id)
	t.revision++

	return sb.id
}

// newBlock creates a new empty block owned by owner.
func (t *Tree) newBlock(owner StmtID, span *report.TextSpan) BlockID {
	id := BlockID(len(t.blocks))
	t.blocks = append(t.blocks, &Block{ASTBase: NewASTBaseOn(span), id: id, Owner: owner})
	t.revision++
	return id
}

// -----------------------------------------------------------------------------

// OwnedBlocks returns the blocks owned by a statement in source order.
func OwnedBlocks(s Stmt) []BlockID {
	switch v := s.(type) {
	case *ObjectDecl:
		return []BlockID{v.Body}
	case *FuncDecl:
		return []BlockID{v.Body}
	case *If:
		if v.Else.IsValid() {
			return []BlockID{v.Then, v.Else}
		}

		return []BlockID{v.Then}
	case *While:
		return []BlockID{v.Body}
	case *BlockStmt:
		return []BlockID{v.Body}
	default:
		return nil
	}
}

// NameOf returns the declared name of a named declaration statement.
func NameOf(s Stmt) (string, bool) {
	switch v := s.(type) {
	case *ObjectDecl:
		return v.Name, true
	case *FuncDecl:
		return v.Name, true
	case *VarDecl:
		return v.Name, true
	default:
		return "", false
	}
}

// Walk traverses the statements of block depth-first in source order, calling
// fn for each statement.  If fn returns false, the blocks owned by that
// statement are not visited.
func (t *Tree) Walk(block BlockID, fn func(Stmt) bool) {
	for _, s := range t.Stmts(block) {
		if fn(s) {
			for _, owned := range OwnedBlocks(s) {
				t.Walk(owned, fn)
			}
		}
	}
}

// Path returns the dotted path of named declarations enclosing and including
// the statement id: eg. `Outer.Inner.method`.  Paths are computed from the
// parent links on demand and cached until the next structural change.
func (t *Tree) Path(id StmtID) string {
	t.pathMu.Lock()
	defer t.pathMu.Unlock()

	if t.pathCache == nil || t.pathCacheRev != t.revision {
		t.pathCache = make(map[StmtID]string)
		t.pathCacheRev = t.revision
	}

	if path, ok := t.pathCache[id]; ok {
		return path
	}

	var names []string
	for cur := id; cur.IsValid(); {
		s := t.Stmt(cur)
		if s == nil {
			break
		}

		if name, ok := NameOf(s); ok {
			names = append(names, name)
		}

		cur = t.blocks[s.Parent()].Owner
	}

	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}

	path := strings.Join(names, ".")
	t.pathCache[id] = path
	return path
}
