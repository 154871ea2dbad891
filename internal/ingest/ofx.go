package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/joshsymonds/budget-sentinel/internal/model"
)

// preprocessOFX fixes common formatting issues in OFX files before parsing.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// Mixed-case SEVERITY values (should be INFO, WARN, or ERROR)
	severityRegex := regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML-style files sometimes drop the closing angle bracket on bare tags
	tagFixRegex := regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// parseOFXFile parses an OFX/QFX export. OFX amounts are already signed
// (negative for debits), which matches the canonical convention, so no flag
// detection is needed. Statements that fail to parse are skipped with a
// warning rather than failing the batch.
func parseOFXFile(ctx context.Context, path string) (*Result, error) {
	file, err := os.Open(path) // #nosec G304 -- user-supplied input path
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file %s: %w", path, err)
	}

	result := &Result{File: path}

	for _, msg := range resp.Bank {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			if stmt.BankTranList == nil {
				continue
			}
			accountID := string(stmt.BankAcctFrom.AcctID)
			for i, ofxTx := range stmt.BankTranList.Transactions {
				result.Transactions = append(result.Transactions,
					convertOFXTransaction(ofxTx, path, accountID, i))
			}
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			if stmt.BankTranList == nil {
				continue
			}
			accountID := string(stmt.CCAcctFrom.AcctID)
			for i, ofxTx := range stmt.BankTranList.Transactions {
				result.Transactions = append(result.Transactions,
					convertOFXTransaction(ofxTx, path, accountID, i))
			}
		}
	}

	slog.Info("Parsed OFX file",
		"file", path,
		"transactions", len(result.Transactions))

	return result, nil
}

func convertOFXTransaction(ofxTx ofxgo.Transaction, path, accountID string, index int) model.Transaction {
	amount, _ := ofxTx.TrnAmt.Float64()

	description := string(ofxTx.Name)
	if ofxTx.Payee != nil && ofxTx.Payee.Name != "" {
		description = string(ofxTx.Payee.Name)
	} else if description == "" && ofxTx.Memo != "" {
		description = string(ofxTx.Memo)
	}

	txn := model.Transaction{
		Date:           ofxTx.DtPosted.Time,
		RawDescription: strings.TrimSpace(description),
		PaymentMethod:  fmt.Sprintf("%v", ofxTx.TrnType),
		Account:        accountID,
		Amount:         amount,
		SourceFile:     path,
		SourceRowID:    index + 1,
		ID:             string(ofxTx.FiTID),
	}
	if txn.ID == "" {
		txn.ID = fmt.Sprintf("%s:%d", filepath.Base(path), index+1)
	}
	txn.Hash = txn.GenerateHash()

	return txn
}
