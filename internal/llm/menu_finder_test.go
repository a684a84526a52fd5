package llm

import (
	"context"
	"testing"

	"github.com/Veraticus/finlens/internal/menu"
	"github.com/Veraticus/finlens/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMenuTree() *menu.Tree {
	return menu.New([]model.MenuNode{
		{Text: "조회", Depth: 0, Children: []model.MenuNode{
			{Text: "계좌조회", Depth: 1},
			{Text: "거래내역조회", Depth: 1},
		}},
		{Text: "이체", Depth: 0, Children: []model.MenuNode{
			{Text: "계좌이체", Depth: 1},
			{Text: "예약이체", Depth: 1},
			{Text: "자동이체", Depth: 1},
		}},
		{Text: "고객센터", Depth: 0},
	})
}

const transferCategory = `{"category":"이체","description":"다른 계좌로 돈을 보내는 메뉴"}`

func TestMenuFinder_Recommend(t *testing.T) {
	client := newMockClient(
		reply(transferCategory),
		reply(`{"selected_menu":"예약이체","description":"정한 날짜에 송금","candidate_menus":["자동이체"]}`),
	)
	f := NewMenuFinder(newTestService(t, client, 1), testMenuTree())

	rec, err := f.Recommend(context.Background(), "다음 주 월요일에 월세 보내고 싶어요")
	require.NoError(t, err)
	assert.Equal(t, model.MenuRecommendation{
		Category:       "이체",
		SelectedMenu:   "예약이체",
		Description:    "정한 날짜에 송금",
		CandidateMenus: []string{"자동이체"},
	}, rec)

	require.Equal(t, 2, client.calls())

	first := client.requests[0]
	assert.Same(t, categorySchema, first.Schema)
	require.Len(t, first.Messages, 1)
	assert.Contains(t, first.Messages[0].Text, "월세")
	assert.Contains(t, first.Messages[0].Text, "- 조회\n- 이체\n- 고객센터")

	second := client.requests[1]
	assert.Same(t, menuSchema, second.Schema)
	assert.InDelta(t, menuTemperature, second.Temperature, 1e-6)
	require.Len(t, second.Messages, 3)
	assert.Equal(t, first.Messages[0], second.Messages[0])
	assert.Equal(t, RoleModel, second.Messages[1].Role)
	assert.Contains(t, second.Messages[1].Text, "다른 계좌로 돈을 보내는 메뉴")
	assert.Equal(t, RoleUser, second.Messages[2].Role)
	assert.Contains(t, second.Messages[2].Text, "- 계좌이체\n- 예약이체\n- 자동이체")
	assert.NotContains(t, second.Messages[2].Text, "계좌조회")
}

func TestMenuFinder_NoCandidates(t *testing.T) {
	client := newMockClient(
		reply(transferCategory),
		reply(`{"selected_menu":"계좌이체","description":"바로 송금"}`),
	)
	f := NewMenuFinder(newTestService(t, client, 1), testMenuTree())

	rec, err := f.Recommend(context.Background(), "친구에게 돈 보내기")
	require.NoError(t, err)
	assert.NotNil(t, rec.CandidateMenus)
	assert.Empty(t, rec.CandidateMenus)
}

func TestMenuFinder_Failures(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		replies []mockReply
		calls   int
	}{
		{
			name:    "unknown category",
			replies: []mockReply{reply(`{"category":"대출","description":"대출 메뉴"}`)},
			wantErr: ErrUnknownCategory,
			calls:   1,
		},
		{
			name:    "missing category description",
			replies: []mockReply{reply(`{"category":"이체"}`)},
			wantErr: ErrInvalidResponse,
			calls:   1,
		},
		{
			name:    "category without menus",
			replies: []mockReply{reply(`{"category":"고객센터","description":"문의"}`)},
			wantErr: ErrUnknownMenu,
			calls:   1,
		},
		{
			name: "menu from another category",
			replies: []mockReply{
				reply(transferCategory),
				reply(`{"selected_menu":"계좌조회","description":"잔액 확인","candidate_menus":[]}`),
			},
			wantErr: ErrUnknownMenu,
			calls:   2,
		},
		{
			name: "candidate outside category",
			replies: []mockReply{
				reply(transferCategory),
				reply(`{"selected_menu":"계좌이체","description":"송금","candidate_menus":["거래내역조회"]}`),
			},
			wantErr: ErrUnknownMenu,
			calls:   2,
		},
		{
			name: "missing selected menu",
			replies: []mockReply{
				reply(transferCategory),
				reply(`{"description":"송금","candidate_menus":[]}`),
			},
			wantErr: ErrInvalidResponse,
			calls:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newMockClient(tt.replies...)
			f := NewMenuFinder(newTestService(t, client, 1), testMenuTree())

			_, err := f.Recommend(context.Background(), "송금")
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.calls, client.calls())
		})
	}
}

func TestMenuFinder_EmptyTree(t *testing.T) {
	client := newMockClient()
	f := NewMenuFinder(newTestService(t, client, 1), menu.New(nil))

	_, err := f.Recommend(context.Background(), "송금")
	require.ErrorIs(t, err, ErrNoMenus)
	assert.Equal(t, 0, client.calls())
}
