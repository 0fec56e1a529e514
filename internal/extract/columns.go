package extract

// PlayerColumns is the priority column order for the player record stream.
// Fields present in the first written record appear in this order; anything
// else the extractor produced follows lexicographically.
var PlayerColumns = []string{
	"player_id", "version", "name", "full_name", "description", "image",
	"height_cm", "weight_kg", "dob", "positions", "overall_rating", "potential",
	"value", "wage", "preferred_foot", "weak_foot", "skill_moves",
	"international_reputation", "body_type", "real_face",
	"release_clause", "specialities", "club_id", "club_name", "club_league_id",
	"club_league_name", "club_logo", "club_rating", "club_position",
	"club_kit_number", "club_joined", "club_contract_valid_until",
	"country_id", "country_name", "country_league_id", "country_league_name",
	"country_flag", "country_rating", "country_position", "country_kit_number",
	"attacking_crossing", "attacking_finishing", "attacking_heading_accuracy",
	"attacking_short_passing", "attacking_volleys",
	"skill_dribbling", "skill_curve", "skill_fk_accuracy", "skill_long_passing",
	"skill_ball_control",
	"movement_acceleration", "movement_sprint_speed", "movement_agility",
	"movement_reactions", "movement_balance",
	"power_shot_power", "power_jumping", "power_stamina", "power_strength",
	"power_long_shots",
	"mentality_aggression", "mentality_interceptions", "mentality_att_positioning",
	"mentality_vision", "mentality_penalties", "mentality_composure",
	"defending_defensive_awareness", "defending_standing_tackle", "defending_sliding_tackle",
	"goalkeeping_gk_diving", "goalkeeping_gk_handling", "goalkeeping_gk_kicking",
	"goalkeeping_gk_positioning", "goalkeeping_gk_reflexes",
	"play_styles", "url",
}

// ClubColumns is the priority column order for the club record stream.
var ClubColumns = []string{
	"club_id", "name", "league", "league_id", "country",
	"rating", "attack_rating", "midfield_rating", "defense_rating",
	"stadium", "manager", "manager_id", "manager_url", "club_worth",
	"starting_xi_avg_age", "whole_team_avg_age", "rival_team",
	"players_count", "top_players", "club_logo", "country_flag", "url",
}
