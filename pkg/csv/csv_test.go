package csv

import (
	"strings"
	"testing"
	"time"

	"github.com/yurifrl/chatledger/pkg/models"
)

func entries() []models.Entry {
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	return []models.Entry{
		{Date: day, Time: "10:30 AM", Sender: "Ana", Message: "150,00 for groceries", Amount: models.Numeric(150), Kind: models.KindMessage},
		{Date: day, Time: "11:00 AM", Sender: "Bea", Message: "IMG-1.jpg (file attached)", Amount: models.NeedsVerification(), Kind: models.KindImage, AttachmentPath: "expenses/data/IMG-1.jpg"},
	}
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name   string
		filter FilterFunc
		want   string
	}{
		{
			name: "all entries",
			want: "Date,Time,Sender,Message,Amount,Kind,Path\n" +
				"15/01/2025,10:30 AM,Ana,\"150,00 for groceries\",150.00,Message,\n" +
				"15/01/2025,11:00 AM,Bea,IMG-1.jpg (file attached),Verify,Image,expenses/data/IMG-1.jpg\n",
		},
		{
			name:   "needs review only",
			filter: NeedsReview,
			want: "Date,Time,Sender,Message,Amount,Kind,Path\n" +
				"15/01/2025,11:00 AM,Bea,IMG-1.jpg (file attached),Verify,Image,expenses/data/IMG-1.jpg\n",
		},
		{
			name:   "by sender",
			filter: BySender("Nobody"),
			want:   "Date,Time,Sender,Message,Amount,Kind,Path\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Create(entries(), tt.filter)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestCreate_QuotesEmbeddedQuotes(t *testing.T) {
	e := entries()[:1]
	e[0].Message = `said "50"`
	got, err := Create(e, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.Contains(string(got), `"said ""50"""`) {
		t.Errorf("message not quoted: %s", got)
	}
}
