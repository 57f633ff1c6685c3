package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Seeds a running API instance with demo medications and stock entries.

type medication struct {
	Name                 string `json:"name"`
	Manufacturer         string `json:"manufacturer"`
	Description          string `json:"description"`
	RequiresPrescription bool   `json:"requiresPrescription"`
	UnitPrice            string `json:"unitPrice"`
}

type stockEntry struct {
	Quantity        int    `json:"quantity"`
	ReorderLevel    *int   `json:"reorderLevel,omitempty"`
	ReorderQuantity *int   `json:"reorderQuantity,omitempty"`
	Location        string `json:"location,omitempty"`
	SupplierID      string `json:"supplierId,omitempty"`
}

var demoMedications = []struct {
	med   medication
	stock stockEntry
}{
	{
		med:   medication{Name: "Paracetamol 500mg", Manufacturer: "Kimia Farma", Description: "Analgesic and antipyretic", UnitPrice: "3.50"},
		stock: stockEntry{Quantity: 240, Location: "A1", SupplierID: "SUP-001"},
	},
	{
		med:   medication{Name: "Amoxicillin 250mg", Manufacturer: "Sanbe", Description: "Broad-spectrum antibiotic", RequiresPrescription: true, UnitPrice: "7.25"},
		stock: stockEntry{Quantity: 30, ReorderLevel: intPtr(40), ReorderQuantity: intPtr(120), Location: "B3", SupplierID: "SUP-002"},
	},
	{
		med:   medication{Name: "Cetirizine 10mg", Manufacturer: "Dexa Medica", Description: "Antihistamine", UnitPrice: "4.00"},
		stock: stockEntry{Quantity: 80, Location: "A2"},
	},
	{
		med:   medication{Name: "Omeprazole 20mg", Manufacturer: "Kalbe", Description: "Proton pump inhibitor", RequiresPrescription: true, UnitPrice: "10.00"},
		stock: stockEntry{Quantity: 0, Location: "C1", SupplierID: "SUP-003"},
	},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	baseURL := os.Getenv("SEED_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	client := &http.Client{Timeout: 10 * time.Second}

	for _, demo := range demoMedications {
		id, err := createMedication(client, baseURL, demo.med)
		if err != nil {
			log.Fatalf("seed medication %q: %v", demo.med.Name, err)
		}
		if err := trackStock(client, baseURL, id, demo.stock); err != nil {
			log.Fatalf("seed stock for %q: %v", demo.med.Name, err)
		}
		log.Printf("seeded %s (%s), quantity %d", demo.med.Name, id, demo.stock.Quantity)
	}

	log.Println("Seeding completed successfully!")
}

func createMedication(client *http.Client, baseURL string, med medication) (string, error) {
	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := post(client, baseURL+"/api/v1/medications", med, &out); err != nil {
		return "", err
	}
	return out.Data.ID, nil
}

func trackStock(client *http.Client, baseURL, itemID string, entry stockEntry) error {
	payload := struct {
		ItemID string `json:"itemId"`
		stockEntry
	}{ItemID: itemID, stockEntry: entry}
	return post(client, baseURL+"/api/v1/stock", payload, nil)
}

func post(client *http.Client, url string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned %s", url, resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func intPtr(v int) *int { return &v }
