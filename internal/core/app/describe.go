package app

import (
	"fmt"
	"log/slog"

	"ngreflect/internal/data/report"
	"ngreflect/internal/engine/reflection"
	"ngreflect/internal/engine/syntax"
	"ngreflect/internal/shared/util"
)

func describeExports(dir string, exports *reflection.ExportMap) []report.Export {
	out := make([]report.Export, 0, exports.Len())
	exports.Each(func(name string, d reflection.Declaration) bool {
		e := report.Export{Name: name, Via: d.Via()}
		switch d.(type) {
		case *reflection.ConcreteDeclaration:
			e.Kind = "concrete"
		case *reflection.InlineDeclaration:
			e.Kind = "inline"
		case *reflection.ImportedDeclaration:
			e.Kind = "imported"
		}
		if known := d.KnownAs(); known != reflection.KnownNone {
			e.Known = known.String()
		}
		e.Location = location(dir, reflection.DeclarationNode(d))
		out = append(out, e)
		return true
	})
	return out
}

func describeClass(h *reflection.Host, dir string, cs *reflection.ClassSymbol, logger *slog.Logger) report.Class {
	decl := cs.Declaration
	c := report.Class{Name: cs.Name, Line: decl.Line()}
	if f := decl.File(); f != nil {
		c.File = util.RelSlash(dir, f.Path)
	}
	if base := h.GetBaseClassExpression(decl); !base.IsZero() {
		c.Base = base.Text()
	}
	c.Decorators = describeDecorators(h.GetDecoratorsOfDeclaration(decl))

	members, err := h.GetMembersOfClass(decl)
	if err != nil {
		logger.Debug("members not available", "class", cs.Name, "error", err)
	}
	for _, m := range members {
		c.Members = append(c.Members, report.Member{
			Name:       m.Name,
			Kind:       m.Kind.String(),
			Static:     m.IsStatic,
			Decorators: describeDecorators(m.Decorators),
		})
	}

	params, err := h.GetConstructorParameters(decl)
	if err != nil {
		logger.Debug("constructor parameters not available", "class", cs.Name, "error", err)
	}
	if params != nil {
		c.CtorParams = make([]report.CtorParam, 0, len(params))
	}
	for _, p := range params {
		cp := report.CtorParam{Name: p.Name, Decorators: describeDecorators(p.Decorators)}
		if !p.TypeExpression.IsZero() {
			cp.Type = p.TypeExpression.Text()
		}
		c.CtorParams = append(c.CtorParams, cp)
	}

	if dts, ok := h.GetDtsDeclaration(decl); ok {
		c.Dts = location(dir, dts)
	}
	return c
}

func describeDecorators(decorators []reflection.Decorator) []report.Decorator {
	if len(decorators) == 0 {
		return nil
	}
	out := make([]report.Decorator, 0, len(decorators))
	for _, d := range decorators {
		rd := report.Decorator{Name: d.Name, Args: make([]string, 0, len(d.Args))}
		if d.Import != nil {
			rd.Import = d.Import.From
		}
		for _, arg := range d.Args {
			rd.Args = append(rd.Args, arg.Text())
		}
		out = append(out, rd)
	}
	return out
}

func location(dir string, n syntax.Node) string {
	if n.IsZero() || n.File() == nil {
		return ""
	}
	return fmt.Sprintf("%s:%d", util.RelSlash(dir, n.File().Path), n.Line())
}
