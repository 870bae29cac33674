package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scriptradar/rxquote/internal/model"
	"github.com/scriptradar/rxquote/internal/report"
)

var (
	quoteStrength      string
	quoteForm          string
	quoteDays          int
	quotePlanID        string
	quotePlanName      string
	quoteRXCUI         string
	quoteZip           string
	quoteDeductibleMet bool
	quotePharmacies    []string
	quoteExport        string
)

var quoteCmd = &cobra.Command{
	Use:   "quote <medication>",
	Short: "Price a medication across pharmacies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("quote"); err != nil {
			return err
		}

		orch, st, err := initOrchestrator(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		req := model.PricingRequest{
			MedicationName: args[0],
			Strength:       quoteStrength,
			Form:           quoteForm,
			DaysSupply:     quoteDays,
			RXCUI:          quoteRXCUI,
			ZipCode:        quoteZip,
			DeductibleMet:  quoteDeductibleMet,
			Insurance: model.InsuranceSelection{
				PlanID:   quotePlanID,
				PlanName: quotePlanName,
			},
		}
		for _, name := range quotePharmacies {
			req.Pharmacies = append(req.Pharmacies, model.Pharmacy{Name: name, ZipCode: quoteZip})
		}

		result, err := orch.Quote(ctx, req)
		if err != nil {
			return err
		}

		formatQuotes(result)

		if quoteExport != "" {
			if err := report.WriteXLSX(result, quoteExport); err != nil {
				return err
			}
			zap.L().Info("quote report written", zap.String("path", quoteExport))
		}
		return nil
	},
}

func formatQuotes(result *model.QuoteResult) {
	fmt.Printf("%s (%s): %d units, %s\n", result.Medication, result.GenericName,
		result.ActualUnits, result.Dosing.Description)
	fmt.Printf("wholesale: $%.2f via %s", result.Wholesale.Cost, result.Wholesale.Provenance)
	if result.Wholesale.Estimated {
		fmt.Print(" (estimated)")
	}
	fmt.Println()
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PHARMACY\tCASH\tINSURANCE\tMEMBERSHIP\tCOUPON\tBEST\tSAVINGS")
	for _, q := range result.Quotes {
		couponCol := "-"
		if q.Coupon != nil {
			couponCol = fmt.Sprintf("$%.2f (%s)", q.Coupon.Price, q.Coupon.Provider)
		}
		fmt.Fprintf(w, "%s\t$%.2f\t$%.2f\t$%.2f\t%s\t%s\t$%.2f\n",
			q.Pharmacy.Name, q.CashPrice, q.InsurancePrice, q.MembershipPrice,
			couponCol, q.BestOption, q.Savings)
	}
	w.Flush()
}

func init() {
	quoteCmd.Flags().StringVar(&quoteStrength, "strength", "", "dosage strength, e.g. 500mg")
	quoteCmd.Flags().StringVar(&quoteForm, "form", "", "dosage form, e.g. tablet")
	quoteCmd.Flags().IntVar(&quoteDays, "days", 30, "days supply")
	quoteCmd.Flags().StringVar(&quotePlanID, "plan", "no_insurance", "insurance plan id")
	quoteCmd.Flags().StringVar(&quotePlanName, "plan-name", "", "insurance plan display name")
	quoteCmd.Flags().StringVar(&quoteRXCUI, "rxcui", "", "RxNorm concept id for formulary lookup")
	quoteCmd.Flags().StringVar(&quoteZip, "zip", "", "patient ZIP code for regional pricing")
	quoteCmd.Flags().BoolVar(&quoteDeductibleMet, "deductible-met", false, "annual deductible already met")
	quoteCmd.Flags().StringArrayVar(&quotePharmacies, "pharmacy", []string{"CVS Pharmacy", "Walgreens", "Costco Pharmacy", "Walmart Pharmacy"}, "pharmacy to quote (repeatable)")
	quoteCmd.Flags().StringVar(&quoteExport, "export", "", "write an XLSX comparison report to this path")
	rootCmd.AddCommand(quoteCmd)
}
