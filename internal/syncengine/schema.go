package syncengine

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/raimangsxr/my-warehouse/internal/apierror"
)

// cueCtx is the single compilation context every payload schema and every
// incoming payload is built from, mirroring the teacher's internal/cli
// loader (one cuecontext.New() per process, reused across CompileConcept
// calls rather than rebuilt per spec file).
var cueCtx = cuecontext.New()

// payloadSchemas gives each CommandType the CUE struct its Payload map
// must unify with before dispatch touches the database. This is the same
// shape the teacher's compiler.CompileConcept validates a parsed CUE value
// against — here the "spec" being checked is a sync command's JSON payload
// rather than a .cue source file, but the validate-by-unification idiom is
// identical: compile a schema once, Unify it with the candidate value, and
// require the result to be fully cue.Concrete.
var payloadSchemas = map[CommandType]cue.Value{
	CmdBoxCreate: cueCtx.CompileString(`{
		name?: string
		description?: string
		physical_location?: string
		parent_box_id?: string
	}`),
	CmdBoxUpdate: cueCtx.CompileString(`{
		name?: string
		description?: string
		physical_location?: string
	}`),
	CmdBoxMove: cueCtx.CompileString(`{
		parent_box_id?: string
	}`),
	CmdBoxDelete: cueCtx.CompileString(`{
		force?: bool
	}`),
	CmdBoxRestore: cueCtx.CompileString(`{}`),
	CmdItemCreate: cueCtx.CompileString(`{
		box_id: string & !=""
		name: string & !=""
		description?: string
		photo_url?: string
		physical_location?: string
		tags?: [...string]
		aliases?: [...string]
	}`),
	CmdItemUpdate: cueCtx.CompileString(`{
		name?: string
		description?: string
		photo_url?: string
		physical_location?: string
		tags?: [...string]
		aliases?: [...string]
		box_id?: string
	}`),
	CmdItemDelete:     cueCtx.CompileString(`{}`),
	CmdItemRestore:    cueCtx.CompileString(`{}`),
	CmdItemFavorite:   cueCtx.CompileString(`{}`),
	CmdItemUnfavorite: cueCtx.CompileString(`{}`),
	CmdStockAdjust: cueCtx.CompileString(`{
		delta: number & !=0
		note?: string
	}`),
}

// validatePayload unifies a command's payload against its command type's
// schema. A missing required field, or a field of the wrong type, fails
// unification before stringField/intField's zero-value-on-absence
// fallbacks can paper over it. An unknown command type has no schema and
// is left for dispatch's own default case.
func validatePayload(cmdType CommandType, payload map[string]any) error {
	schema, ok := payloadSchemas[cmdType]
	if !ok {
		return nil
	}
	if payload == nil {
		payload = map[string]any{}
	}

	candidate := cueCtx.Encode(payload)
	unified := schema.Unify(candidate)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return apierror.InvalidInput(fmt.Sprintf("%s: invalid payload: %v", cmdType, err))
	}
	return nil
}
