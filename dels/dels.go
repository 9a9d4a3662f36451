// Package dels holds the trash workflow shared by every collection:
// soft-delete, restore, and permanent purge. Deletion is always soft
// first; purge is only reachable from the trash view and is irreversible.
package dels

import (
	"context"
	"net/http"
	"time"

	"tabiji/link"
	"tabiji/store"
	"tabiji/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

// ---- Core helper ----

func setDeleted(st store.Adapter, collection string, deleted bool) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id := ps.ByName("id")
		if id == "" {
			utils.RespondWithError(w, http.StatusBadRequest, "missing id")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := st.UpdateDocument(ctx, collection, id, bson.M{"deleted": deleted}); err != nil {
			utils.RespondWithError(w, store.StatusFor(err), "update failed")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
	}
}

// SoftDelete flags a record deleted.
func SoftDelete(st store.Adapter, collection string) httprouter.Handle {
	return setDeleted(st, collection, true)
}

// Restore clears the deleted flag.
func Restore(st store.Adapter, collection string) httprouter.Handle {
	return setDeleted(st, collection, false)
}

// Purge removes the record for good.
func Purge(st store.Adapter, collection string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id := ps.ByName("id")
		if id == "" {
			utils.RespondWithError(w, http.StatusBadRequest, "missing id")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := st.DeleteDocument(ctx, collection, id); err != nil {
			utils.RespondWithError(w, store.StatusFor(err), "delete failed")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
	}
}

// ---- Linked variants for the shopping collection ----
//
// Shopping records cascade to their linked expense in one batch, so the
// trash workflow goes through the link manager instead of plain writes.

type linkedOp func(mgr *link.Manager, ctx context.Context, id string) error

func linked(mgr *link.Manager, op linkedOp) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id := ps.ByName("id")
		if id == "" {
			utils.RespondWithError(w, http.StatusBadRequest, "missing id")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		if err := op(mgr, ctx, id); err != nil {
			utils.RespondWithError(w, store.StatusFor(err), "update failed")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
	}
}

func SoftDeleteLinked(mgr *link.Manager) httprouter.Handle {
	return linked(mgr, (*link.Manager).SoftDelete)
}

func RestoreLinked(mgr *link.Manager) httprouter.Handle {
	return linked(mgr, (*link.Manager).Restore)
}

func PurgeLinked(mgr *link.Manager) httprouter.Handle {
	return linked(mgr, (*link.Manager).Purge)
}
