package lang

import (
	"github.com/jhlagado/ts-tacitus-sub002/compiler"
	"github.com/jhlagado/ts-tacitus-sub002/dict"
	"github.com/jhlagado/ts-tacitus-sub002/errs"
	"github.com/jhlagado/ts-tacitus-sub002/vm"
)

// Compile reads one logical unit of source from l and emits bytecode via c,
// resolving words against d: a number becomes a literal push, "(" / ")"
// become open_list/close_list, ":" / ";" bracket a colon definition that
// installs a new CODE entry in d, and any other word is looked up against
// the compiler's open local scope first, then d, and compiled as a slot
// store, slot load or ref push (local, see compileWord), a call (user
// definition), a builtin opcode, or a literal push (any non-CODE dictionary
// value), per the word's binding.
func Compile(l *Lexer, c *compiler.Compiler, d *dict.Dict) error {
	for {
		tok := l.Next()
		switch tok.Kind {
		case EOF:
			return nil
		case DefClose:
			return errs.New(errs.InvalidOpcode, "unexpected ;").WithName(tok.Pos.String())
		case DefOpen:
			if err := compileDefinition(l, c, d); err != nil {
				return err
			}
		default:
			if err := compileToken(tok, l, c, d); err != nil {
				return err
			}
		}
	}
}

// compileToken emits one token that is valid inside a top-level stream or a
// definition body (everything except nested ":"). l is threaded through so
// compileWord can look one token ahead for the local store/fetch sugar.
func compileToken(tok Token, l *Lexer, c *compiler.Compiler, d *dict.Dict) error {
	switch tok.Kind {
	case Number:
		return c.EmitLiteral(vm.FromFloat(tok.Num))
	case ListOpen:
		return c.EmitOpcode(vm.OpOpenList)
	case ListClose:
		return c.EmitOpcode(vm.OpCloseList)
	case Word:
		return compileWord(tok.Text, l, c, d)
	default:
		return errs.New(errs.InvalidOpcode, "unexpected token").WithName(tok.Pos.String())
	}
}

// compileDefinition consumes tokens through the matching ";" and installs a
// new dictionary entry for the definition's name, pointing at a
// reserve_locals prologue whose count is patched once the body has
// finished compiling and the local count is known.
func compileDefinition(l *Lexer, c *compiler.Compiler, d *dict.Dict) error {
	name := l.Next()
	if name.Kind != Word {
		return errs.New(errs.InvalidOpcode, "expected definition name").WithName(name.Pos.String())
	}
	skip, err := c.EmitBranch(vm.OpBranch)
	if err != nil {
		return err
	}
	entry := c.Here()
	if err := c.EmitOpcode(vm.OpReserveLocals); err != nil {
		return err
	}
	countAddr := c.Here()
	if err := c.EmitU8(0); err != nil {
		return err
	}

	c.OpenScope()
	if err := compileLocalsDecl(l, c); err != nil {
		return err
	}
	for {
		tok := l.Next()
		if tok.Kind == DefClose {
			break
		}
		if tok.Kind == EOF {
			return errs.New(errs.InvalidOpcode, "unterminated definition").WithName(name.Text)
		}
		if tok.Kind == DefOpen {
			return errs.New(errs.InvalidOpcode, "nested definitions are not supported").WithName(name.Text)
		}
		if err := compileToken(tok, l, c, d); err != nil {
			return err
		}
	}
	n := c.CloseScope()
	if err := c.PatchLocalCount(countAddr, n); err != nil {
		return err
	}
	if err := c.EmitOpcode(vm.OpReturn); err != nil {
		return err
	}
	if err := c.PatchHere(skip); err != nil {
		return err
	}
	d.Define(name.Text, vm.Encode(int32(entry), vm.CODE), false)
	return nil
}

// compileLocalsDecl recognizes an optional "( locals: name name ... )"
// clause immediately after a definition's name and declares each listed
// name in the compiler's open scope. Anything else found here (an ordinary
// list literal, or the start of the body) is pushed back unconsumed.
func compileLocalsDecl(l *Lexer, c *compiler.Compiler) error {
	open := l.Next()
	if open.Kind != ListOpen {
		l.PushBack(open)
		return nil
	}
	marker := l.Next()
	if marker.Kind != Word || marker.Text != "locals:" {
		l.PushBack(marker)
		l.PushBack(open)
		return nil
	}
	for {
		tok := l.Next()
		switch tok.Kind {
		case ListClose:
			return nil
		case Word:
			c.DeclareLocal(tok.Text)
		default:
			return errs.New(errs.InvalidOpcode, "expected local name").WithName(tok.Pos.String())
		}
	}
}

// compileWord resolves name against the compiler's open local scope first,
// then the dictionary.
//
// A resolved local is compiled one of three ways, matching whichever of
// slot-load/slot-store/ref it is used as (per the locals binding rule): a
// local immediately followed by "store" compiles to a direct slot store
// (the pending value is popped straight into the slot); a local immediately
// followed by "fetch" compiles to a direct slot load (the slot's value is
// pushed); used bare otherwise, it compiles to a ref push (OpVarRef), the
// form needed to pass the local's address to anything else that takes a
// REF.
func compileWord(name string, l *Lexer, c *compiler.Compiler, d *dict.Dict) error {
	if slot, ok := c.ResolveLocal(name); ok {
		next := l.Next()
		if next.Kind == Word && next.Text == "store" {
			if err := c.EmitOpcode(vm.OpSlotStore); err != nil {
				return err
			}
			return c.EmitU8(uint8(slot))
		}
		if next.Kind == Word && next.Text == "fetch" {
			if err := c.EmitOpcode(vm.OpSlotLoad); err != nil {
				return err
			}
			return c.EmitU8(uint8(slot))
		}
		l.PushBack(next)
		if err := c.EmitOpcode(vm.OpVarRef); err != nil {
			return err
		}
		return c.EmitU8(uint8(slot))
	}
	value, _, ok := d.FindEntry(name)
	if !ok {
		return errs.New(errs.UndefinedWord, "compile").WithName(name)
	}
	t, p := vm.Decode(value)
	if t != vm.CODE {
		return c.EmitLiteral(value)
	}
	if int(p) < vm.MaxBuiltin {
		return c.EmitOpcode(vm.Opcode(p))
	}
	return c.EmitCall(int(p))
}
