package testutil

import "github.com/Veraticus/finlens/internal/model"

// Predefined dictionary fixtures.
var (
	// FixtureMinimal holds a single entry.
	FixtureMinimal = []model.DictionaryEntry{
		{Term: "환율", Definition: "두 나라 돈을 바꿀 때의 교환 비율"},
	}

	// FixtureBanking covers the terms most banking screens show.
	FixtureBanking = []model.DictionaryEntry{
		{Term: "금리", Definition: "돈을 빌리거나 맡길 때 붙는 이자의 비율"},
		{Term: "예금자 보호", Definition: "은행이 문을 닫아도 일정 금액까지 돌려받는 제도"},
		{Term: "중도상환수수료", Definition: "대출을 약속보다 일찍 갚을 때 내는 수수료"},
		{Term: "자동이체", Definition: "정한 날짜에 정한 금액을 자동으로 보내는 서비스"},
		{Term: "예금", Definition: "은행에 돈을 맡기는 것"},
	}
)
