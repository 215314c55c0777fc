package agent

import (
	"errors"
	"testing"

	"tiger-trader/internal/model"
)

func TestCleanModelOutput_Fences(t *testing.T) {
	cases := []struct{ in, want string }{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
		{"Here is my answer:\n{\"a\":1}\nHope that helps.", `{"a":1}`},
	}
	for _, c := range cases {
		if got := cleanModelOutput(c.in, false); got != c.want {
			t.Errorf("cleanModelOutput(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCleanModelOutput_List(t *testing.T) {
	in := "```json\n[{\"order_id\":\"1\",\"action\":\"KEEP\"}]\n```"
	want := `[{"order_id":"1","action":"KEEP"}]`
	if got := cleanModelOutput(in, true); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecodeObject_Decision(t *testing.T) {
	raw := "```json\n{\"action\":\"BUY\",\"symbol\":\"00700\",\"price\":0,\"quantity\":10,\"reason\":\"momentum\"}\n```"
	var dec model.Decision
	if err := decodeObject(raw, &dec); err != nil {
		t.Fatalf("decodeObject: %v", err)
	}
	if dec.Action != model.ActionBuy || dec.Symbol != "00700" || dec.Quantity != 10 {
		t.Errorf("decoded %+v", dec)
	}
}

func TestDecodeObject_Malformed(t *testing.T) {
	var dec model.Decision
	err := decodeObject("I think you should buy Tencent.", &dec)
	if !errors.Is(err, model.ErrMalformedResponse) {
		t.Fatalf("got %v, want ErrMalformedResponse", err)
	}
	if err := decodeObject("", &dec); !errors.Is(err, model.ErrMalformedResponse) {
		t.Fatalf("empty input: got %v, want ErrMalformedResponse", err)
	}
}

func TestDecodeList_PendingActions(t *testing.T) {
	raw := `Sure! [{"order_id":"7","action":"MODIFY","new_price":321.4,"reason":"chase"}]`
	var actions []model.PendingAction
	if err := decodeList(raw, &actions); err != nil {
		t.Fatalf("decodeList: %v", err)
	}
	if len(actions) != 1 || actions[0].Action != model.PendingModify || actions[0].NewPrice != 321.4 {
		t.Errorf("decoded %+v", actions)
	}
}
