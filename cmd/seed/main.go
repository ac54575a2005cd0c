// Command seed generates a realistic payment transaction dataset for the
// PayWatch Transaction API and writes it to data/seed.json.
//
// Usage:
//
//	go run ./cmd/seed
//
// The generated dataset contains ~260 transactions spanning 30 days:
//   - ~85% normal traffic from recurring payers across Indian regions
//   - ~6% high-value outliers above the amount threshold
//   - ~4% traffic from blocklisted IPs or regions
//   - ~5% card-testing bursts with repeated failed attempts
package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"paywatch/transaction-api/internal/domain"
)

func main() {
	rng := rand.New(rand.NewSource(42)) // deterministic seed for reproducibility

	baseTime := time.Now().UTC().Add(-30 * 24 * time.Hour)
	var records []domain.TransactionRecord

	records = append(records, generateNormalTraffic(rng, baseTime)...)
	records = append(records, generateHighValueOutliers(rng, baseTime)...)
	records = append(records, generateBlocklistedOrigins(rng, baseTime)...)
	records = append(records, generateCardTestingBursts(rng, baseTime)...)

	// Shuffle so patterns aren't trivially grouped in the file.
	rng.Shuffle(len(records), func(i, j int) {
		records[i], records[j] = records[j], records[i]
	})

	if err := os.MkdirAll("data", 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir error: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Create("data/seed.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "create error: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		fmt.Fprintf(os.Stderr, "encode error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d transactions → data/seed.json\n", len(records))
}

// ─── Normal traffic (~220 transactions) ───────────────────────────────────────

// payerProfile describes a recurring, legitimate payer.
type payerProfile struct {
	payerID   string
	region    string
	ip        string
	channel   string
	mode      string
	avgAmount float64
}

var payerProfiles = []payerProfile{
	{payerID: "PAYER_1001", region: "Maharashtra", ip: "49.36.12.101", channel: domain.ChannelMobile, mode: domain.ModeUPI, avgAmount: 1200},
	{payerID: "PAYER_1002", region: "Karnataka", ip: "106.51.77.23", channel: domain.ChannelWeb, mode: domain.ModeCreditCard, avgAmount: 4500},
	{payerID: "PAYER_1003", region: "Delhi", ip: "122.161.45.9", channel: domain.ChannelMobile, mode: domain.ModeDebitCard, avgAmount: 2300},
	{payerID: "PAYER_1004", region: "Tamil Nadu", ip: "117.192.88.54", channel: domain.ChannelWeb, mode: domain.ModeUPI, avgAmount: 800},
	{payerID: "PAYER_1005", region: "Gujarat", ip: "103.240.35.18", channel: domain.ChannelATM, mode: domain.ModeCash, avgAmount: 5000},
	{payerID: "PAYER_1006", region: "West Bengal", ip: "45.112.60.77", channel: domain.ChannelMobile, mode: domain.ModeUPI, avgAmount: 650},
	{payerID: "PAYER_1007", region: "Rajasthan", ip: "152.58.19.202", channel: domain.ChannelWeb, mode: domain.ModeCreditCard, avgAmount: 7200},
	{payerID: "PAYER_1008", region: "Kerala", ip: "59.92.144.36", channel: domain.ChannelMobile, mode: domain.ModeDebitCard, avgAmount: 1900},
	{payerID: "PAYER_1009", region: "Punjab", ip: "182.68.203.15", channel: domain.ChannelATM, mode: domain.ModeCash, avgAmount: 3000},
	{payerID: "PAYER_1010", region: "Telangana", ip: "110.235.42.88", channel: domain.ChannelWeb, mode: domain.ModeUPI, avgAmount: 1500},
}

var payeeIDs = []string{
	"MERCH_2001", "MERCH_2002", "MERCH_2003", "MERCH_2004",
	"MERCH_2005", "MERCH_2006", "MERCH_2007", "MERCH_2008",
}

func generateNormalTraffic(rng *rand.Rand, base time.Time) []domain.TransactionRecord {
	var records []domain.TransactionRecord
	txID := 10000

	for _, p := range payerProfiles {
		// Each recurring payer makes 20-24 transactions over 30 days.
		count := 20 + rng.Intn(5)

		for i := 0; i < count; i++ {
			hoursIntoWindow := float64(i) * (30 * 24.0 / float64(count))
			jitter := rng.Float64() * 6 // up to 6 hours of drift
			ts := base.Add(time.Duration((hoursIntoWindow + jitter) * float64(time.Hour)))

			// Amounts vary ±40% around the payer's average.
			amount := roundTo2(p.avgAmount * (0.6 + rng.Float64()*0.8))

			status := domain.StatusCompleted
			if rng.Float64() < 0.05 {
				status = domain.StatusPending
			}

			records = append(records, domain.TransactionRecord{
				TransactionID:  fmt.Sprintf("TXN%05d", txID),
				Date:           ts,
				Amount:         amount,
				PayerID:        p.payerID,
				PayeeID:        payeeIDs[rng.Intn(len(payeeIDs))],
				PaymentChannel: p.channel,
				PaymentMode:    p.mode,
				PaymentStatus:  status,
				OriginatingIP:  p.ip,
				Region:         p.region,
				FailedAttempts: 0,
			})
			txID++
		}
	}
	return records
}

// ─── High-value outliers (~15 transactions) ───────────────────────────────────

func generateHighValueOutliers(rng *rand.Rand, base time.Time) []domain.TransactionRecord {
	var records []domain.TransactionRecord
	txID := 20000

	for i := 0; i < 15; i++ {
		p := payerProfiles[rng.Intn(len(payerProfiles))]
		ts := base.Add(time.Duration(rng.Intn(30*24)) * time.Hour)

		records = append(records, domain.TransactionRecord{
			TransactionID:  fmt.Sprintf("TXN%05d", txID),
			Date:           ts,
			Amount:         roundTo2(120000 + rng.Float64()*380000),
			PayerID:        p.payerID,
			PayeeID:        payeeIDs[rng.Intn(len(payeeIDs))],
			PaymentChannel: domain.ChannelWeb,
			PaymentMode:    domain.ModeCreditCard,
			PaymentStatus:  domain.StatusCompleted,
			OriginatingIP:  p.ip,
			Region:         p.region,
			FailedAttempts: 0,
		})
		txID++
	}
	return records
}

// ─── Blocklisted origins (~10 transactions) ───────────────────────────────────

func generateBlocklistedOrigins(rng *rand.Rand, base time.Time) []domain.TransactionRecord {
	var records []domain.TransactionRecord
	txID := 30000

	// Half from the blocklisted IP, half from the blocklisted region.
	for i := 0; i < 5; i++ {
		ts := base.Add(time.Duration(rng.Intn(30*24)) * time.Hour)
		records = append(records, domain.TransactionRecord{
			TransactionID:  fmt.Sprintf("TXN%05d", txID),
			Date:           ts,
			Amount:         roundTo2(500 + rng.Float64()*4500),
			PayerID:        fmt.Sprintf("PAYER_9%03d", i),
			PayeeID:        payeeIDs[rng.Intn(len(payeeIDs))],
			PaymentChannel: domain.ChannelWeb,
			PaymentMode:    domain.ModeCreditCard,
			PaymentStatus:  domain.StatusCompleted,
			OriginatingIP:  "192.168.1.1",
			Region:         "Maharashtra",
			FailedAttempts: 0,
		})
		txID++
	}

	for i := 0; i < 5; i++ {
		ts := base.Add(time.Duration(rng.Intn(30*24)) * time.Hour)
		records = append(records, domain.TransactionRecord{
			TransactionID:  fmt.Sprintf("TXN%05d", txID),
			Date:           ts,
			Amount:         roundTo2(800 + rng.Float64()*6000),
			PayerID:        fmt.Sprintf("PAYER_8%03d", i),
			PayeeID:        payeeIDs[rng.Intn(len(payeeIDs))],
			PaymentChannel: domain.ChannelMobile,
			PaymentMode:    domain.ModeUPI,
			PaymentStatus:  domain.StatusCompleted,
			OriginatingIP:  fmt.Sprintf("203.0.113.%d", 10+i),
			Region:         "Pakistan",
			FailedAttempts: 0,
		})
		txID++
	}

	return records
}

// ─── Card-testing bursts (~12 transactions) ───────────────────────────────────

// generateCardTestingBursts creates small-amount attempts with escalating
// failed attempt counts, the signature of stolen-card validation.
func generateCardTestingBursts(rng *rand.Rand, base time.Time) []domain.TransactionRecord {
	var records []domain.TransactionRecord
	txID := 40000

	bursts := []struct {
		payerID string
		ip      string
		region  string
		dayIn   int
	}{
		{payerID: "PAYER_7001", ip: "198.51.100.44", region: "Haryana", dayIn: 7},
		{payerID: "PAYER_7002", ip: "198.51.100.87", region: "Bihar", dayIn: 19},
	}

	for _, b := range bursts {
		burstStart := base.Add(time.Duration(b.dayIn*24+2) * time.Hour) // 02:00
		for i := 0; i < 6; i++ {
			ts := burstStart.Add(time.Duration(i*3) * time.Minute)
			records = append(records, domain.TransactionRecord{
				TransactionID:  fmt.Sprintf("TXN%05d", txID),
				Date:           ts,
				Amount:         roundTo2(10 + rng.Float64()*90),
				PayerID:        b.payerID,
				PayeeID:        payeeIDs[rng.Intn(len(payeeIDs))],
				PaymentChannel: domain.ChannelWeb,
				PaymentMode:    domain.ModeCreditCard,
				PaymentStatus:  domain.StatusFailed,
				OriginatingIP:  b.ip,
				Region:         b.region,
				FailedAttempts: i, // escalates past the rule threshold
			})
			txID++
		}
	}

	return records
}

// ─── Utilities ────────────────────────────────────────────────────────────────

func roundTo2(f float64) float64 {
	return float64(int(f*100)) / 100
}
