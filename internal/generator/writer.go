package generator

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/utopialabs/utopia/internal/store"
)

// LogHeader is the first line of every transaction log.
const LogHeader = "User,Card,Year,Month,Day,Time,Amount,Use Chip,Merchant Name,Merchant City,Merchant State,Zip,MCC,Errors?,Is Fraud?"

// WriteStore persists the dataset into the reference store.
func WriteStore(st *store.Store, ds Dataset) error {
	for i, rec := range ds.Users {
		id := uint16(i)
		buf, err := store.EncodeUser(rec.User)
		if err != nil {
			return fmt.Errorf("encode user %d: %w", id, err)
		}
		if err := st.Put(store.TableUsers, store.UserKey(id), buf); err != nil {
			return err
		}
		for c, card := range rec.Cards {
			buf, err := store.EncodeCard(card)
			if err != nil {
				return fmt.Errorf("encode card %d/%d: %w", id, c, err)
			}
			if err := st.Put(store.TableCards, store.CardKey(id, uint8(c)), buf); err != nil {
				return err
			}
		}
	}

	for _, rec := range ds.Merchants {
		buf, err := store.EncodeMerchant(rec.Merchant)
		if err != nil {
			return fmt.Errorf("encode merchant %d: %w", rec.ID, err)
		}
		if err := st.Put(store.TableMerchants, store.MerchantKey(rec.ID), buf); err != nil {
			return err
		}
	}

	for _, rec := range ds.States {
		buf, err := store.EncodeState(rec.State)
		if err != nil {
			return fmt.Errorf("encode state %s: %w", rec.Abbrev, err)
		}
		if err := st.Put(store.TableStates, store.StateKey(rec.Abbrev), buf); err != nil {
			return err
		}
	}

	return nil
}

// WriteLog emits a transaction log drawn against the dataset.
func (g *Generator) WriteLog(w io.Writer, ds Dataset) error {
	if len(ds.Users) == 0 || len(ds.Merchants) == 0 {
		return fmt.Errorf("dataset has no users or merchants")
	}

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, LogHeader); err != nil {
		return err
	}

	for i := 0; i < g.cfg.NumTransactions; i++ {
		tx := g.transaction(ds)

		amount := tx.Amount
		sign := ""
		if amount < 0 {
			sign = "-"
			amount = -amount
		}

		errorsField := ""
		if len(tx.Errors) > 0 {
			errorsField = `"` + strings.Join(tx.Errors, ",") + `"`
		}

		fraud := "No"
		if tx.IsFraud {
			fraud = "Yes"
		}

		zip := ""
		if tx.Zip != 0 {
			zip = fmt.Sprintf("%d", tx.Zip)
		}

		_, err := fmt.Fprintf(bw, "%d,%d,%d,%02d,%02d,%02d:%02d,%s$%d.%02d,%s,%d,%s,%s,%s,%d,%s,%s\n",
			tx.UserID, tx.CardID,
			tx.Time.Year(), int(tx.Time.Month()), tx.Time.Day(),
			tx.Time.Hour(), tx.Time.Minute(),
			sign, amount/100, amount%100,
			tx.Type, tx.MerchantID,
			tx.MerchantCity, tx.MerchantState, zip, tx.MCC,
			errorsField, fraud,
		)
		if err != nil {
			return err
		}
	}

	return bw.Flush()
}
