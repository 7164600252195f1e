package player

import (
	"fmt"
	"log/slog"

	"github.com/tfwatch/tfwatch/internal/store"
)

// kickReasons maps a banned attribute to the callvote reason word the
// game accepts.
var kickReasons = map[store.Attr]string{
	store.AttrCheater: "cheating",
	store.AttrRacist:  "cheating",
}

// Kick flags a user with an attribute and, when the resulting record
// is banned, queues the chat-and-vote command pair.
//
// Without a steamid nothing can be persisted or voted on: the
// attribute is queued in PendingAttrs and the operator is notified
// once. Re-adding an attribute the record already carries is a no-op
// other than logging.
func (us *Users) Kick(u *User, attr store.Attr) {
	if u.SteamID == "" {
		for _, pending := range u.PendingAttrs {
			if pending == attr {
				slog.Info("kick already pending", "name", u.Name, "attr", attr)
				return
			}
		}
		u.PendingAttrs = append(u.PendingAttrs, attr)
		slog.Info("kick queued until steamid known", "name", u.Name, "attr", attr)
		if !u.PendingNotified {
			u.PendingNotified = true
			us.notify(fmt.Sprintf("%s flagged %s; waiting for steamid to kick", u.Name, attr))
		}
		return
	}

	rec := u.record
	if rec == nil && us.records != nil {
		var err error
		rec, err = us.records.Get(u.SteamID)
		if err != nil {
			slog.Error("hacker record lookup failed", "steamid", u.SteamID, "error", err)
			rec = nil
		}
	}

	if rec != nil {
		u.record = rec
		if !rec.AddAttr(attr) {
			slog.Info("already flagged", "name", u.Name, "attr", attr)
			return
		}
	} else {
		rec = &store.Player{
			SteamID:      u.SteamID,
			FirstSession: us.cfg.Session,
			LastSession:  us.cfg.Session,
		}
		rec.AddName(u.Name)
		for _, pending := range u.PendingAttrs {
			rec.AddAttr(pending)
		}
		u.PendingAttrs = nil
		rec.AddAttr(attr)
		u.record = rec
	}

	if us.records != nil {
		if err := us.records.Put(rec); err != nil {
			slog.Error("hacker record write failed", "steamid", u.SteamID, "error", err)
		}
	}

	if rec.Banned() {
		us.vote(u, rec)
	}
}

// vote pushes the formatted chat-and-vote-kick command pair, once per
// userid.
func (us *Users) vote(u *User, rec *store.Player) {
	if us.kicked[u.UserID] {
		slog.Debug("kick vote already queued", "userid", u.UserID, "name", u.Name)
		return
	}
	us.kicked[u.UserID] = true

	reason := "cheating"
	word := "cheater"
	for _, attr := range rec.Attrs {
		if r, ok := kickReasons[attr]; ok {
			reason = r
			word = string(attr)
			break
		}
	}

	rec.KickCount++
	if us.records != nil {
		if err := us.records.Put(rec); err != nil {
			slog.Error("hacker record write failed", "steamid", rec.SteamID, "error", err)
		}
	}

	us.kicks.PushBack(
		fmt.Sprintf("say %s is a confirmed %s, voting to kick", u.Name, word),
		fmt.Sprintf(`callvote kick "%d %s"`, u.UserID, reason),
	)
	slog.Info("kick vote queued", "name", u.Name, "userid", u.UserID, "reason", word)
}

// KickByUserID flags a user by in-session numeric id, as typed on the
// admin console. An unknown id is reported, not fatal.
func (us *Users) KickByUserID(userid int, attr store.Attr) {
	for _, u := range us.byName {
		if u.UserID == userid {
			us.Kick(u, attr)
			return
		}
	}
	us.notify(fmt.Sprintf("no user with id %d", userid))
	slog.Error("kick by id: no such user", "userid", userid, "attr", attr)
}
